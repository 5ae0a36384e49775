package s3store

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/upb/ami-parentage/services"
	"go.uber.org/zap"
)

// API is the subset of the S3 client the fetcher calls
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher implements repositories.ObjectFetcher on S3
type Fetcher struct {
	client API
	logger *zap.Logger
}

// NewFetcher creates a new S3 fetcher
func NewFetcher(client API, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logger,
	}
}

// Fetch downloads the whole object body
func (f *Fetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, retrievalError("failed to get object", bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, retrievalError("failed to read object body", bucket, key, err)
	}

	f.logger.Debug("object fetched",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(body)))
	return body, nil
}

func retrievalError(message, bucket, key string, err error) error {
	domainErr := services.NewDomainError(services.ErrorTypeRetrieval, message, err).
		WithDetail("bucket", bucket).
		WithDetail("key", key)

	var noSuchKey *types.NoSuchKey
	var apiErr smithy.APIError
	switch {
	case errors.As(err, &noSuchKey):
		domainErr.WithDetail("aws_error_code", "NoSuchKey")
	case errors.As(err, &apiErr):
		domainErr.WithDetail("aws_error_code", apiErr.ErrorCode())
	}
	return domainErr
}
