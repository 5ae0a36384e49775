package observability

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger. format is "json" for production encoding or
// "console" for human-readable development output.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

type invocationIDKey struct{}

// WithInvocationID stores an invocation ID in the context
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey{}, id)
}

// InvocationID returns the ID of the current invocation. Inside Lambda this is
// the AWS request ID; elsewhere a random UUID is generated and should be stored
// with WithInvocationID so later calls agree.
func InvocationID(ctx context.Context) string {
	if id, ok := ctx.Value(invocationIDKey{}).(string); ok && id != "" {
		return id
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}

// ForInvocation returns a child logger tagged with the invocation ID
func ForInvocation(ctx context.Context, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("invocation_id", InvocationID(ctx)))
}
