// Package cli — export.go implements the "stevedore export" command.
//
// export runs the merge pipeline and writes the canonical merged pod
// configuration as YAML, without touching any container. The output is
// deterministic: the same ordered file list always produces byte-identical
// output, so it is safe to diff or commit.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/stevedore/internal/config"
	"github.com/mmr-tortoise/stevedore/internal/model"
)

// NewExportCommand creates the "export" cobra command.
func NewExportCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the merged pod configuration as canonical YAML",
		Long: `Merge the pod definition files and print the resulting configuration.

The output has sorted service names and normalized field forms, and is
byte-identical across runs for the same ordered file list. Use it to
inspect what a stack of override files actually produces.

Examples:
  stevedore export
  stevedore export -f pod.yml --override staging
  stevedore export -o merged.yml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPod()
			if err != nil {
				return err
			}

			data, err := config.Canonical(p.Config)
			if err != nil {
				return model.WrapCLIError(model.ExitConfigError,
					"cannot serialize pod configuration", err)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, data, 0o644); err != nil {
					return model.WrapCLIError(model.ExitRunFailed,
						fmt.Sprintf("cannot write %q", outputPath), err)
				}
				VerboseLog("Wrote merged configuration to %s", outputPath)
				return nil
			}

			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Write to a file instead of stdout")

	return cmd
}
