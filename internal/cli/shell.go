// Package cli — shell.go implements the "stevedore shell" command.
//
// shell is a scoped command: it starts only the services the target
// transitively links to, then runs the target's shell hook (the
// stevedore.shell label, "sh" when unset) inside the target's container.
// Services outside the target's dependency closure are never touched.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

// NewShellCommand creates the "shell" cobra command.
func NewShellCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell <service>",
		Short: "Start a service's dependencies and open its shell hook",
		Long: `Start the minimal set of services the target depends on, then run the
target's shell hook inside its container.

The hook command comes from the service's stevedore.shell label and
defaults to "sh". If any dependency fails to start, the shell is not
opened and the command reports which dependency blocked it.

Examples:
  stevedore shell web
  stevedore shell --override local web`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			service := args[0]

			p, err := loadPod()
			if err != nil {
				return err
			}
			if !p.Graph.Contains(service) {
				return model.NewCLIError(model.ExitConfigError,
					fmt.Sprintf("unknown service %q", service))
			}

			eng, closeAdapter, err := newEngine(p)
			if err != nil {
				return err
			}
			defer func() { _ = closeAdapter() }()

			report, err := eng.Shell(cmd.Context(), service)
			if err != nil {
				return err
			}

			// The hook's captured output is the point of the command,
			// so surface it before the per-service summary.
			if res := report.Result(service); res != nil && !IsJSONOutput() && res.Stdout != "" {
				fmt.Print(res.Stdout)
			}
			return printReport(report)
		},
	}

	return cmd
}
