package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeRetrieval, "object not found", baseErr)

	assert.Equal(t, ErrorTypeRetrieval, domainErr.Type)
	assert.Equal(t, "object not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeMalformedPayload,
				Message: "gzip decompression failed",
				Err:     errors.New("gzip: invalid header"),
			},
			wantMsg: "malformed_payload: gzip decompression failed (gzip: invalid header)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeFieldExtraction,
				Message: "missing imageId",
			},
			wantMsg: "field_extraction: missing imageId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeWrite, "insert failed", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error type",
			err:    NewDomainError(ErrorTypeValidation, "DB_USER is required", nil),
			target: ErrInvalidConfig,
			want:   true,
		},
		{
			name:   "different error type",
			err:    NewDomainError(ErrorTypeWrite, "insert failed", nil),
			target: ErrInvalidConfig,
			want:   false,
		},
		{
			name:   "wrapped domain error",
			err:    fmt.Errorf("config validation failed: %w", WrapValidation("invalid configuration", errors.New("DB_HOST is required"))),
			target: ErrInvalidConfig,
			want:   true,
		},
		{
			name:   "not a domain error target",
			err:    NewDomainError(ErrorTypeRetrieval, "no such key", nil),
			target: errors.New("regular error"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeRetrieval, "object fetch failed", nil)

	err.WithDetail("bucket", "trail-logs").WithDetail("key", "AWSLogs/x.json.gz")

	assert.Equal(t, "trail-logs", err.Details["bucket"])
	assert.Equal(t, "AWSLogs/x.json.gz", err.Details["key"])
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"retrieval", NewDomainError(ErrorTypeRetrieval, "no such key", nil), IsRetrievalError, true},
		{"wrapped retrieval", fmt.Errorf("ctx: %w", WrapRetrieval("denied", errors.New("403"))), IsRetrievalError, true},
		{"malformed payload", WrapMalformedPayload("gunzip", errors.New("bad header")), IsMalformedPayloadError, true},
		{"field extraction", NewDomainError(ErrorTypeFieldExtraction, "bad principal", nil), IsFieldExtractionError, true},
		{"write", WrapWrite("insert failed", errors.New("dup")), IsWriteError, true},
		{"mismatched type", WrapWrite("insert failed", nil), IsRetrievalError, false},
		{"regular error", errors.New("regular"), IsWriteError, false},
		{"nil error", nil, IsMalformedPayloadError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"retrieval", WrapRetrieval("denied", nil), ErrorTypeRetrieval},
		{"malformed", WrapMalformedPayload("gunzip", nil), ErrorTypeMalformedPayload},
		{"field extraction", NewDomainError(ErrorTypeFieldExtraction, "missing", nil), ErrorTypeFieldExtraction},
		{"write", WrapWrite("insert", nil), ErrorTypeWrite},
		{"validation", ErrInvalidConfig, ErrorTypeValidation},
		{"regular error", errors.New("regular"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeFieldExtraction, "missing fields", nil)
	err.WithDetail("fields", []string{"ImageID"})

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, []string{"ImageID"}, details["fields"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}

func TestWrapValidation(t *testing.T) {
	baseErr := errors.New("DB_USER is required")
	wrapped := WrapValidation("invalid configuration", baseErr)

	var domainErr *DomainError
	require.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, ErrorTypeValidation, domainErr.Type)
	assert.Equal(t, "invalid configuration", domainErr.Message)
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
	assert.ErrorIs(t, wrapped, ErrInvalidConfig)
}

func TestWrapHelpers(t *testing.T) {
	baseErr := errors.New("underlying")

	assert.True(t, IsRetrievalError(WrapRetrieval("get object", baseErr)))
	assert.True(t, IsMalformedPayloadError(WrapMalformedPayload("gunzip", baseErr)))
	assert.True(t, IsWriteError(WrapWrite("insert", baseErr)))
	assert.Equal(t, baseErr, errors.Unwrap(WrapWrite("insert", baseErr)))
}
