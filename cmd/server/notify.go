package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
)

var threshold float64

var notifyCmd = &cobra.Command{
	Use:   "notify-low-stock",
	Short: "Email the stock recipients about raw materials below a threshold",
	Long: `Checks every raw material against the threshold and emails the recipients that opted
into stock notifications. Failed sends are reported and never change the exit code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		notifier := a.notifier()
		if !cmd.Flags().Changed("threshold") {
			threshold = notifier.Threshold()
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Checking raw materials below %g...\n", threshold)
		report, err := notifier.NotifyAll(cmd.Context(), threshold)
		if err != nil {
			a.logger.Error("Stock notification failed", zap.Error(err))
			fmt.Fprintf(out, "Failed: %v\n", err)
			return nil
		}
		printReport(out, report)
		return nil
	},
}

func init() {
	notifyCmd.Flags().Float64Var(&threshold, "threshold", 500, "stock level below which a material is reported")
	rootCmd.AddCommand(notifyCmd)
}

// printReport writes one line per delivery and a summary.
func printReport(w io.Writer, report *services.StockReport) {
	if len(report.Materials) == 0 {
		fmt.Fprintln(w, "No raw material is below the threshold")
	}
	for _, d := range report.Deliveries {
		if d.Error != "" {
			fmt.Fprintf(w, "Failed for %s: %s\n", d.Email, d.Error)
			continue
		}
		fmt.Fprintf(w, "Sent to %s\n", d.Email)
	}
	fmt.Fprintf(w, "Done: %d sent, %d failed\n", report.Sent, report.Failed)
}
