// Package cli — test.go implements the "stevedore test" command.
//
// With a service argument, test is a scoped command: only the target's
// dependency closure starts, and the target's test hook (the stevedore.test
// label) runs inside its container. Without an argument, the whole pod
// starts and every service that configured a test hook runs it; services
// without one are reported as skipped.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

// NewTestCommand creates the "test" cobra command.
func NewTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [service]",
		Short: "Run test hooks, for one service or the whole pod",
		Long: `Run test hooks inside running containers.

With a service name, only the services the target depends on are started
and the target's test hook runs. Without one, the full pod starts and the
test hook of every service that declares one runs. Services without a
stevedore.test label are skipped, never failed.

Examples:
  stevedore test web
  stevedore test
  stevedore test --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			service := ""
			if len(args) == 1 {
				service = args[0]
			}

			p, err := loadPod()
			if err != nil {
				return err
			}
			if service != "" && !p.Graph.Contains(service) {
				return model.NewCLIError(model.ExitConfigError,
					fmt.Sprintf("unknown service %q", service))
			}

			eng, closeAdapter, err := newEngine(p)
			if err != nil {
				return err
			}
			defer func() { _ = closeAdapter() }()

			report, err := eng.Test(cmd.Context(), service)
			if err != nil {
				return err
			}

			if !IsJSONOutput() {
				for _, res := range report.Results {
					if res.Stdout != "" {
						fmt.Print(res.Stdout)
					}
				}
			}
			return printReport(report)
		},
	}

	return cmd
}
