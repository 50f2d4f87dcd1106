// Package cli — report.go renders engine reports in text or JSON form and
// maps a failed run to its exit code.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"

	"github.com/mmr-tortoise/stevedore/internal/engine"
	"github.com/mmr-tortoise/stevedore/internal/model"
)

// Status colors for the text renderer. color honors NO_COLOR and disables
// itself on non-terminal stdout, so no extra plumbing is needed here.
var (
	statusRunning = color.New(color.FgGreen)
	statusFailed  = color.New(color.FgRed)
	statusSkipped = color.New(color.FgYellow)
)

// printReport renders the report and returns a CLIError with exit code 1
// when any service failed, so Execute maps a partially failed run onto the
// process exit status.
func printReport(report *engine.Report) error {
	if IsJSONOutput() {
		printReportJSON(report)
	} else {
		printReportText(report)
	}

	if report.Failed() {
		return model.NewCLIError(model.ExitRunFailed,
			fmt.Sprintf("%s finished with failures", report.Command))
	}
	return nil
}

// printReportJSON marshals the report verbatim for machine consumption.
func printReportJSON(report *engine.Report) {
	data, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(data))
}

// printReportText renders one line per service with a colorized status.
func printReportText(report *engine.Report) {
	fmt.Printf("%s:\n", report.Command)
	for _, res := range report.Results {
		fmt.Printf("  %-16s %s", res.Service, renderStatus(res.Status))
		if res.Reason != "" {
			fmt.Printf("  (%s)", res.Reason)
		}
		fmt.Println()
		if res.Status == model.StatusFailed && res.Stderr != "" {
			fmt.Printf("    %s\n", res.Stderr)
		}
	}
}

func renderStatus(st model.NodeStatus) string {
	switch st {
	case model.StatusRunning:
		return statusRunning.Sprint("ok")
	case model.StatusFailed:
		return statusFailed.Sprint("failed")
	case model.StatusSkipped:
		return statusSkipped.Sprint("skipped")
	default:
		return string(st)
	}
}
