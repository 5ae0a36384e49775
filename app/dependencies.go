package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/upb/ami-parentage/config"
	"github.com/upb/ami-parentage/repositories"
	"github.com/upb/ami-parentage/repositories/dataapi"
	"github.com/upb/ami-parentage/repositories/s3store"
	"github.com/upb/ami-parentage/repositories/sqldb"
	"github.com/upb/ami-parentage/services/processor"
	"go.uber.org/zap"
)

// Dependencies holds everything one Lambda execution environment reuses
// across invocations. This is the central wiring point.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	AWS    aws.Config
	DB     *sqldb.DB // nil in data-api mode

	Fetcher   repositories.ObjectFetcher
	Writer    repositories.ParentageWriter
	Processor *processor.ProcessorService
}

// NewDependencies creates and wires up the pipeline from configuration
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	deps.AWS = awsCfg
	deps.Fetcher = s3store.NewFetcher(s3.NewFromConfig(awsCfg), logger)

	writer, db, err := newWriter(cfg, awsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize writer: %w", err)
	}
	deps.Writer = writer
	deps.DB = db

	deps.Processor = processor.NewProcessorService(deps.Fetcher, deps.Writer, ProcessorConfig(cfg), logger)

	logger.Info("all dependencies initialized successfully",
		zap.String("writer_mode", cfg.Writer.Mode),
		zap.Strings("event_names", deps.Processor.EventNames()))
	return deps, nil
}

// ProcessorConfig extracts the record selection settings
func ProcessorConfig(cfg *config.Config) processor.Config {
	return processor.Config{
		EventNames:        cfg.Pipeline.EventNames,
		SkipErroredEvents: cfg.Pipeline.SkipErroredEvents,
	}
}

// LoadAWSConfig resolves credentials and region through the SDK default chain,
// honouring an explicit AWS_REGION
func LoadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// NewS3Fetcher builds an object fetcher backed by S3
func NewS3Fetcher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*s3store.Fetcher, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3store.NewFetcher(s3.NewFromConfig(awsCfg), logger), nil
}

// NewWriter builds the configured parentage writer outside the Lambda wiring.
// The returned DB is nil unless the writer is in direct mode.
func NewWriter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.ParentageWriter, *sqldb.DB, error) {
	var awsCfg aws.Config
	if cfg.Writer.Mode == config.WriterModeDataAPI {
		var err error
		if awsCfg, err = LoadAWSConfig(ctx, cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to load aws config: %w", err)
		}
	}
	return newWriter(cfg, awsCfg, logger)
}

func newWriter(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (repositories.ParentageWriter, *sqldb.DB, error) {
	switch cfg.Writer.Mode {
	case config.WriterModeDataAPI:
		client := rdsdata.NewFromConfig(awsCfg)
		logger.Info("using data api writer",
			zap.String("database", cfg.DataAPI.Database),
			zap.String("table", cfg.DataAPI.Table))
		return dataapi.NewParentageRepository(client, cfg.DataAPI, logger), nil, nil
	case config.WriterModeDirect:
		db, err := sqldb.NewDB(cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return sqldb.NewParentageRepository(db, cfg.Database.Table, logger), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported writer mode %q", cfg.Writer.Mode)
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
