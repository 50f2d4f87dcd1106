// Package cli implements the cobra-based CLI commands for stevedore.
//
// Each subcommand (up, stop, build, shell, test, status, export) is defined
// in its own file within this package. This file defines the root command
// that serves as the parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// podFiles is the ordered list of pod definition files given with
	// -f/--file. Order matters: later files override earlier ones during
	// the merge. Defaults to a single "pod.yml" in the working directory.
	podFiles []string

	// overrideNames lists named overrides given with --override. For each
	// name, pod.<name>.yml (resolved next to the first pod file) is
	// appended after the explicitly listed files.
	overrideNames []string

	// jsonOutput controls whether command output is formatted as JSON.
	// When true, all output uses structured JSON format for machine consumption.
	// When false (default), output uses human-readable text format.
	jsonOutput bool

	// verbose enables detailed logging output for debugging.
	verbose bool

	// logLevel selects the engine log level (debug, info, warn, error).
	logLevel = "warn"

	// concurrency bounds how many container operations run at once
	// within a dependency batch.
	concurrency = 4

	// timeout bounds every single container operation.
	timeout = "5m"

	// dryRun substitutes a scripted adapter for the Docker runtime so the
	// planned operations print without touching any container.
	dryRun bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action. Actual
// functionality is provided by subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stevedore",
		Short: "Dependency-ordered orchestration for multi-service container pods",
		Long: `stevedore merges layered pod definition files into one canonical
configuration, derives a dependency graph from inter-service links, and runs
container operations batch by batch in dependency order.

Later files given with -f override earlier ones: scalars are replaced,
sequences are replaced wholesale, and label mappings merge key by key.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	// PersistentFlags are inherited by all subcommands, so every command
	// accepts the same file selection and output options.
	rootCmd.PersistentFlags().StringSliceVarP(&podFiles, "file", "f", nil,
		"Pod definition file, repeatable; later files override earlier ones (default pod.yml)")
	rootCmd.PersistentFlags().StringSliceVar(&overrideNames, "override", nil,
		"Named override: appends pod.<name>.yml after the listed files")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel,
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", concurrency,
		"Maximum concurrent container operations per batch")
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", timeout,
		"Timeout for a single container operation")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"Plan and report without touching any container")

	// Register subcommands. Each subcommand is defined in its own file
	// (up.go, stop.go, etc.) and returns a *cobra.Command.
	rootCmd.AddCommand(NewUpCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewShellCommand())
	rootCmd.AddCommand(NewTestCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewExportCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		// Check if the error is a CLIError with a specific exit code.
		// errors.As would also work here, but a type assertion is simpler
		// for this single-level check.
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitRunFailed))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode, because stdout is
		// reserved for successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}
