// Package cli — stop.go implements the "stevedore stop" command.
//
// stop walks the execution plan in reverse batch order so dependents go
// down before the services they link to. Stop attempts are not gated on
// each other: a service that refuses to stop does not prevent stop
// attempts on the rest of the pod.
package cli

import (
	"github.com/spf13/cobra"
)

// NewStopCommand creates the "stop" cobra command.
func NewStopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop all services, dependents first",
		Long: `Stop every service of the pod in reverse dependency order.

Services that depend on others stop first, so nothing loses a dependency
while still running. A service that fails to stop is reported but does not
prevent the remaining services from stopping.

Examples:
  stevedore stop
  stevedore stop --json`,

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

			report, err := eng.Stop(cmd.Context())
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}

	return cmd
}
