// Package cli — build.go implements the "stevedore build" command.
//
// build prepares every service's image: services with a build context are
// built from source, the rest have their image pulled. Work proceeds in
// dependency order so base images produced by one service are available to
// the services that link to it.
package cli

import (
	"github.com/spf13/cobra"
)

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build or pull every service image",
		Long: `Build the image of every service that declares a build context, and pull
the image of every service that declares an image reference. Work proceeds
batch by batch in dependency order.

Examples:
  stevedore build
  stevedore build -f pod.yml -f pod.ci.yml`,

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

			report, err := eng.Build(cmd.Context())
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}

	return cmd
}
