package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/upb/ami-parentage/app"
	"github.com/upb/ami-parentage/config"
	"github.com/upb/ami-parentage/repositories"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string
	EventNames  []string
	SkipErrored bool
	Write       bool
	EnsureTable bool

	// Seams replaced in tests.
	loadConfig  func(ctx context.Context) (*config.Config, error)
	newS3Source func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.ObjectFetcher, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON, FormatYAML}

// NewRootCommand creates the root command of the replay tool.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{
		loadConfig: config.New,
		newS3Source: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.ObjectFetcher, error) {
			return app.NewS3Fetcher(ctx, cfg, logger)
		},
	})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ami-parentage-replay",
		Short: "Replay CloudTrail log objects through the AMI parentage pipeline",
		Long: `Replay CloudTrail log objects through the same decode, filter and map
stages the Lambda handler runs.

By default rows are only printed. Pass --write to insert them with the writer
configured through the environment (WRITER_MODE, DB_*, DATA_API_*).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flags",
					fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.EnsureTable && !opts.Write {
				return WrapExitError(ExitCommandError, "invalid flags",
					fmt.Errorf("--ensure-table requires --write"))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|yaml)")
	cmd.PersistentFlags().StringSliceVar(&opts.EventNames, "event-name", nil, "event names to record (default EVENT_NAMES or CreateImage)")
	cmd.PersistentFlags().BoolVar(&opts.SkipErrored, "skip-errored", false, "skip records CloudTrail logged with an errorCode")
	cmd.PersistentFlags().BoolVar(&opts.Write, "write", false, "insert rows with the configured writer")
	cmd.PersistentFlags().BoolVar(&opts.EnsureTable, "ensure-table", false, "create the parentage table before writing (direct mode only)")

	cmd.AddCommand(NewFileCommand(opts))
	cmd.AddCommand(NewObjectCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code
func Execute(args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return GetExitCode(err)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
