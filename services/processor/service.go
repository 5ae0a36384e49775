package processor

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/upb/ami-parentage/internal/observability"
	"github.com/upb/ami-parentage/models"
	"github.com/upb/ami-parentage/repositories"
	"github.com/upb/ami-parentage/services"
	"github.com/upb/ami-parentage/services/ingest"
	"github.com/upb/ami-parentage/services/parentage"
	"go.uber.org/zap"
)

// Config controls record selection
type Config struct {
	EventNames        []string
	SkipErroredEvents bool

	// Decoder turns a fetched object into records. Defaults to ingest.Decode.
	Decoder func(raw []byte) ([]models.Record, error)
	// OnRow, when set, sees every mapped row before it is written.
	OnRow func(record models.Record, row *models.ParentageRow)
}

// Result summarises one invocation
type Result struct {
	Notifications  int `json:"notifications" yaml:"notifications"`
	RecordsScanned int `json:"records_scanned" yaml:"records_scanned"`
	RecordsMatched int `json:"records_matched" yaml:"records_matched"`
	RecordsSkipped int `json:"records_skipped" yaml:"records_skipped"`
	RowsWritten    int `json:"rows_written" yaml:"rows_written"`
}

// ProcessorService runs the fetch, decode, filter, map and write pipeline
// for each storage notification of an invocation
type ProcessorService struct {
	fetcher     repositories.ObjectFetcher
	writer      repositories.ParentageWriter
	names       ingest.EventNames
	skipErrored bool
	decode      func(raw []byte) ([]models.Record, error)
	onRow       func(record models.Record, row *models.ParentageRow)
	logger      *zap.Logger
}

// NewProcessorService creates a new processor service
func NewProcessorService(
	fetcher repositories.ObjectFetcher,
	writer repositories.ParentageWriter,
	cfg Config,
	logger *zap.Logger,
) *ProcessorService {
	decode := cfg.Decoder
	if decode == nil {
		decode = ingest.Decode
	}
	return &ProcessorService{
		fetcher:     fetcher,
		writer:      writer,
		names:       ingest.NewEventNames(cfg.EventNames...),
		skipErrored: cfg.SkipErroredEvents,
		decode:      decode,
		onRow:       cfg.OnRow,
		logger:      logger,
	}
}

// EventNames returns the names of interest in sorted order
func (s *ProcessorService) EventNames() []string {
	return s.names.List()
}

// Handle is the Lambda entry point
func (s *ProcessorService) Handle(ctx context.Context, event events.S3Event) error {
	_, err := s.Process(ctx, event)
	return err
}

// Process handles the notifications in order. The first error aborts the
// invocation and is returned unchanged apart from the notification index.
func (s *ProcessorService) Process(ctx context.Context, event events.S3Event) (*Result, error) {
	ctx = observability.WithInvocationID(ctx, observability.InvocationID(ctx))
	logger := observability.ForInvocation(ctx, s.logger)

	logger.Info("processing notifications",
		zap.Int("notifications", len(event.Records)),
		zap.Strings("event_names", s.names.List()))

	sessions := &sessionHolder{writer: s.writer}
	defer func() {
		if err := sessions.close(); err != nil {
			logger.Warn("failed to release writer session", zap.Error(err))
		}
	}()

	result := &Result{}
	for i, record := range event.Records {
		loc := models.ObjectLocator{Bucket: record.S3.Bucket.Name, Key: record.S3.Object.Key}
		if err := s.processNotification(ctx, logger, sessions, loc, result); err != nil {
			logger.Error("failed to process notification",
				zap.Int("index", i),
				zap.String("bucket", loc.Bucket),
				zap.String("key", loc.Key),
				zap.String("error_type", string(services.GetErrorType(err))),
				zap.Any("details", services.GetErrorDetails(err)),
				zap.Error(err))
			return result, fmt.Errorf("notification %d (%s): %w", i, loc, err)
		}
		result.Notifications++
	}

	logger.Info("notifications processed",
		zap.Int("notifications", result.Notifications),
		zap.Int("records_scanned", result.RecordsScanned),
		zap.Int("records_matched", result.RecordsMatched),
		zap.Int("records_skipped", result.RecordsSkipped),
		zap.Int("rows_written", result.RowsWritten))
	return result, nil
}

func (s *ProcessorService) processNotification(
	ctx context.Context,
	logger *zap.Logger,
	sessions *sessionHolder,
	loc models.ObjectLocator,
	result *Result,
) error {
	// Storage event keys arrive form-encoded ("+" for space).
	key, err := url.QueryUnescape(loc.Key)
	if err != nil {
		return services.NewDomainError(services.ErrorTypeRetrieval, "object key is not valid percent-encoding", err).
			WithDetail("key", loc.Key)
	}

	raw, err := s.fetcher.Fetch(ctx, loc.Bucket, key)
	if err != nil {
		return err
	}

	records, err := s.decode(raw)
	if err != nil {
		return err
	}
	matched := ingest.Filter(records, s.names)
	result.RecordsScanned += len(records)
	result.RecordsMatched += len(matched)

	logger.Debug("log object decoded",
		zap.String("bucket", loc.Bucket),
		zap.String("key", key),
		zap.Int("records", len(records)),
		zap.Int("matched", len(matched)))

	for _, record := range matched {
		if s.skipErrored && record.Failed() {
			logger.Warn("skipping unsuccessful event",
				zap.String("event_name", record.EventName),
				zap.String("event_id", record.EventID),
				zap.String("error_code", record.ErrorCode))
			result.RecordsSkipped++
			continue
		}

		row, err := parentage.MapToRow(record)
		if err != nil {
			return err
		}
		if s.onRow != nil {
			s.onRow(record, row)
		}

		session, err := sessions.get(ctx)
		if err != nil {
			return err
		}
		if _, err := session.Insert(ctx, row); err != nil {
			return err
		}
		result.RowsWritten++
	}
	return nil
}

// sessionHolder opens a writer session on first use, so invocations whose
// logs hold no matching events never touch the database
type sessionHolder struct {
	writer  repositories.ParentageWriter
	session repositories.ParentageSession
}

func (h *sessionHolder) get(ctx context.Context) (repositories.ParentageSession, error) {
	if h.session != nil {
		return h.session, nil
	}
	session, err := h.writer.Open(ctx)
	if err != nil {
		return nil, err
	}
	h.session = session
	return session, nil
}

func (h *sessionHolder) close() error {
	if h.session == nil {
		return nil
	}
	err := h.session.Close()
	h.session = nil
	return err
}
