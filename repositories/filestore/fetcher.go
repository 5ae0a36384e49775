package filestore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/upb/ami-parentage/services"
	"go.uber.org/zap"
)

// Fetcher implements repositories.ObjectFetcher on the local filesystem.
// The bucket, when set, is a base directory the key is resolved against.
type Fetcher struct {
	logger *zap.Logger
}

// NewFetcher creates a new filesystem fetcher
func NewFetcher(logger *zap.Logger) *Fetcher {
	return &Fetcher{logger: logger}
}

// Fetch reads the whole file
func (f *Fetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.WrapRetrieval("fetch cancelled", err)
	}

	path := key
	if bucket != "" {
		path = filepath.Join(bucket, key)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeRetrieval, "failed to read file", err).
			WithDetail("path", path)
	}

	f.logger.Debug("file fetched", zap.String("path", path), zap.Int("bytes", len(body)))
	return body, nil
}
