package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"
	"github.com/upb/ami-parentage/app"
	"github.com/upb/ami-parentage/config"
	"github.com/upb/ami-parentage/internal/observability"
	"github.com/upb/ami-parentage/models"
	"github.com/upb/ami-parentage/repositories"
	"github.com/upb/ami-parentage/services"
	"github.com/upb/ami-parentage/services/parentage"
	"github.com/upb/ami-parentage/services/processor"
	"go.uber.org/zap"
)

// ReplayRow is one mapped row together with the event that produced it
type ReplayRow struct {
	EventName string               `json:"event_name" yaml:"event_name"`
	Row       *models.ParentageRow `json:"row" yaml:"row"`
}

// ReplayReport is the structured result of a replay
type ReplayReport struct {
	Written bool              `json:"written" yaml:"written"`
	Rows    []ReplayRow       `json:"rows" yaml:"rows"`
	Summary *processor.Result `json:"summary" yaml:"summary"`
}

// replaySource supplies the fetcher and the notifications to process
type replaySource struct {
	fetcher       repositories.ObjectFetcher
	notifications []models.ObjectLocator
	decoder       func(raw []byte) ([]models.Record, error)
}

func runReplay(ctx context.Context, cmd *cobra.Command, opts *RootOptions, cfg *config.Config, src replaySource, logger *zap.Logger) error {
	writer := repositories.ParentageWriter(dryRunWriter{})
	if opts.Write {
		w, db, err := app.NewWriter(ctx, cfg, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to initialize writer", err)
		}
		if db != nil {
			defer db.Close()
			if opts.EnsureTable {
				if err := db.EnsureTable(ctx, cfg.Database.Table); err != nil {
					return WrapExitError(ExitCommandError, "failed to prepare table", err)
				}
			}
		}
		writer = w
	}

	report := &ReplayReport{Written: opts.Write, Rows: []ReplayRow{}}
	pcfg := processor.Config{
		EventNames:        eventNames(opts, cfg),
		SkipErroredEvents: opts.SkipErrored || cfg.Pipeline.SkipErroredEvents,
		Decoder:           src.decoder,
		OnRow: func(record models.Record, row *models.ParentageRow) {
			report.Rows = append(report.Rows, ReplayRow{EventName: record.EventName, Row: row})
		},
	}
	svc := processor.NewProcessorService(src.fetcher, writer, pcfg, logger)

	result, runErr := svc.Process(ctx, notificationEvent(src.notifications))
	report.Summary = result
	if !opts.Write {
		// Rows were mapped but never inserted.
		report.Summary.RowsWritten = 0
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.Structured() {
		var err error
		if runErr != nil {
			err = out.Failure(report, &CLIError{
				Type:    string(services.GetErrorType(runErr)),
				Message: runErr.Error(),
				Details: services.GetErrorDetails(runErr),
			})
		} else {
			err = out.Success(report)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	} else {
		writeText(cmd.OutOrStdout(), report)
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "replay failed", runErr)
	}
	return nil
}

func writeText(w io.Writer, report *ReplayReport) {
	for _, r := range report.Rows {
		fmt.Fprintln(w, parentage.Describe(r.Row, r.EventName))
	}
	mode := "dry run"
	if report.Written {
		mode = "written"
	}
	s := report.Summary
	rows := len(report.Rows)
	if report.Written {
		// A failed insert leaves its row in the report but not in the table.
		rows = s.RowsWritten
	}
	fmt.Fprintf(w, "objects: %d, records: %d, matched: %d, skipped: %d, rows: %d (%s)\n",
		s.Notifications, s.RecordsScanned, s.RecordsMatched, s.RecordsSkipped, rows, mode)
}

// eventNames resolves --event-name, then the environment, then the default
func eventNames(opts *RootOptions, cfg *config.Config) []string {
	if len(opts.EventNames) > 0 {
		return opts.EventNames
	}
	if len(cfg.Pipeline.EventNames) > 0 {
		return cfg.Pipeline.EventNames
	}
	return []string{config.DefaultEventName}
}

// notificationEvent builds the storage notification batch the Lambda would
// receive. Keys are form-encoded the way S3 delivers them.
func notificationEvent(locs []models.ObjectLocator) events.S3Event {
	records := make([]events.S3EventRecord, 0, len(locs))
	for _, loc := range locs {
		records = append(records, events.S3EventRecord{
			EventSource: "aws:s3",
			EventName:   "ObjectCreated:Put",
			S3: events.S3Entity{
				Bucket: events.S3Bucket{Name: loc.Bucket},
				Object: events.S3Object{Key: encodeKey(loc.Key)},
			},
		})
	}
	return events.S3Event{Records: records}
}

// loadOptions builds the logger and configuration shared by the subcommands.
// Dry runs read the pipeline settings without requiring a writer.
func loadOptions(ctx context.Context, opts *RootOptions) (*config.Config, *zap.Logger, error) {
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logger, err := observability.NewLogger(level, "console")
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to create logger", err)
	}

	if !opts.Write {
		return config.Load(), logger, nil
	}
	cfg, err := opts.loadConfig(ctx)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	return cfg, logger, nil
}

// dryRunWriter accepts rows without storing them
type dryRunWriter struct{}

func (dryRunWriter) Open(context.Context) (repositories.ParentageSession, error) {
	return dryRunWriter{}, nil
}

func (dryRunWriter) Insert(context.Context, *models.ParentageRow) (int64, error) {
	return 1, nil
}

func (dryRunWriter) Close() error { return nil }
