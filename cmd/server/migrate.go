package main

import (
	"github.com/spf13/cobra"
	"github.com/yukikurage/manufacturing-backoffice/internal/database"
)

var seed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := database.Migrate(a.db, a.logger); err != nil {
			return err
		}
		if !seed {
			return nil
		}
		return database.Seed(cmd.Context(), a.db, a.stamper, a.cfg.SuperAdmin, a.logger)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&seed, "seed", false, "install the default windows, the Administrator role and the super admin")
	rootCmd.AddCommand(migrateCmd)
}
