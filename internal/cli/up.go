// Package cli — up.go implements the "stevedore up" command.
//
// up starts every service of the pod in dependency order: services with no
// links start first, then each following batch starts once everything it
// depends on is running. A failed service skips its dependents but leaves
// independent branches running.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/stevedore/internal/model"
	"github.com/mmr-tortoise/stevedore/internal/port"
)

// NewUpCommand creates the "up" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewUpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "up",
		Aliases: []string{"start"},
		Short:   "Start all services in dependency order",
		Long: `Start every service of the pod, batch by batch in dependency order.

A service only starts once all the services it links to are running. When a
service fails, its dependents are skipped; services on independent branches
still start.

Examples:
  stevedore up
  stevedore up -f pod.yml -f pod.local.yml
  stevedore up --override staging --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPod()
			if err != nil {
				return err
			}

			// Probe every fixed host port before anything starts, so a
			// doomed startup fails up front with nothing running.
			if !dryRun {
				if conflicts := port.NewScanner().Conflicts(p.Config); len(conflicts) > 0 {
					return model.NewCLIError(model.ExitRunFailed,
						fmt.Sprintf("host ports already in use: %v", conflicts))
				}
			}

			eng, closeAdapter, err := newEngine(p)
			if err != nil {
				return err
			}
			defer func() { _ = closeAdapter() }()

			VerboseLog("Execution plan: %s", p.Graph.Plan())

			report, err := eng.Start(cmd.Context())
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}

	return cmd
}
