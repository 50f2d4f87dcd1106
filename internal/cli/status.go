// Package cli — status.go implements the "stevedore status" command.
//
// status probes every service's container through the runtime adapter and
// renders a table of container states. Probes carry no ordering constraint
// between services, so they all run concurrently within the worker limit.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/stevedore/internal/engine"
	"github.com/mmr-tortoise/stevedore/internal/model"
)

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the container state of every service",
		Long: `Query the runtime for each service's container and print its state.

Services without a container are reported as absent rather than failed.

Examples:
  stevedore status
  stevedore status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPod()
			if err != nil {
				return err
			}

			eng, closeAdapter, err := newEngine(p)
			if err != nil {
				return err
			}
			defer func() { _ = closeAdapter() }()

			report, err := eng.Status(cmd.Context())
			if err != nil {
				return err
			}

			printStatusReport(report)
			if report.Failed() {
				return model.NewCLIError(model.ExitRunFailed, "status probes failed")
			}
			return nil
		},
	}

	return cmd
}

// printStatusReport renders the status table. Unlike the other commands the
// interesting value is the probe's stdout (the container state string), not
// the node status, so it gets its own renderer.
func printStatusReport(report *engine.Report) {
	if IsJSONOutput() {
		type statusJSON struct {
			Service string `json:"service"`
			State   string `json:"state"`
		}
		out := make([]statusJSON, 0, len(report.Results))
		for _, res := range report.Results {
			out = append(out, statusJSON{Service: res.Service, State: probeState(res)})
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, res := range report.Results {
		fmt.Printf("  %-16s %s\n", res.Service, probeState(res))
	}
}

// probeState extracts the container state from one probe result.
func probeState(res engine.ServiceResult) string {
	if res.Status == model.StatusFailed {
		return statusFailed.Sprint("error")
	}
	state := res.Stdout
	if state == "" {
		state = "unknown"
	}
	return state
}
