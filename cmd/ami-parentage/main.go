package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/upb/ami-parentage/app"
	"github.com/upb/ami-parentage/config"
	"github.com/upb/ami-parentage/internal/observability"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	cfg, err := config.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting ami-parentage",
		zap.String("environment", cfg.Environment),
		zap.String("writer_mode", cfg.Writer.Mode))

	// Built once per execution environment and reused across invocations.
	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}

	lambda.Start(deps.Processor.Handle)
}
