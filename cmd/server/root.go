package main

import (
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

var confPath string

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Manufacturing back office API",
	Long:  `Back office for orders, work orders, delivery orders and raw material stock, with role based window permissions.`,
	// serve is the default command
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&confPath, "conf", "", "path to the YAML config (defaults to $CONFIG_PATH or configs/backoffice.yaml)")
}
