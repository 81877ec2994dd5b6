package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
)

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &services.StockReport{
		Threshold: 500,
		Materials: []services.MaterialStatus{{Name: "Steel sheet", Stock: 50}},
		Sent:      2,
		Failed:    1,
		Deliveries: []services.Delivery{
			{Email: "a@example.com"},
			{Email: "b@example.com", Error: "connection refused"},
			{Email: "c@example.com"},
		},
	})

	assert.Equal(t, "Sent to a@example.com\n"+
		"Failed for b@example.com: connection refused\n"+
		"Sent to c@example.com\n"+
		"Done: 2 sent, 1 failed\n", buf.String())
}

func TestPrintReportNothingLow(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &services.StockReport{Threshold: 500})

	assert.Equal(t, "No raw material is below the threshold\nDone: 0 sent, 0 failed\n", buf.String())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "notify-low-stock", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "backoffice dev")
}
