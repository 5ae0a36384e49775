package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeRetrieval        ErrorType = "retrieval"
	ErrorTypeMalformedPayload ErrorType = "malformed_payload"
	ErrorTypeFieldExtraction  ErrorType = "field_extraction"
	ErrorTypeWrite            ErrorType = "write"
	ErrorTypeValidation       ErrorType = "validation"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// ErrInvalidConfig matches any configuration error through errors.Is
var ErrInvalidConfig = NewDomainError(ErrorTypeValidation, "invalid configuration", nil)

// Error type checking helper functions

// IsRetrievalError checks if an error is an object retrieval error
func IsRetrievalError(err error) bool {
	return hasType(err, ErrorTypeRetrieval)
}

// IsMalformedPayloadError checks if an error is a decompression or parse error
func IsMalformedPayloadError(err error) bool {
	return hasType(err, ErrorTypeMalformedPayload)
}

// IsFieldExtractionError checks if an error is a missing or mismatched field error
func IsFieldExtractionError(err error) bool {
	return hasType(err, ErrorTypeFieldExtraction)
}

// IsWriteError checks if an error is a row insert error
func IsWriteError(err error) bool {
	return hasType(err, ErrorTypeWrite)
}

func hasType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapValidation wraps an error as a configuration validation error
func WrapValidation(message string, err error) error {
	return NewDomainError(ErrorTypeValidation, message, err)
}

// WrapRetrieval wraps an error as an object retrieval error
func WrapRetrieval(message string, err error) error {
	return NewDomainError(ErrorTypeRetrieval, message, err)
}

// WrapMalformedPayload wraps an error as a malformed payload error
func WrapMalformedPayload(message string, err error) error {
	return NewDomainError(ErrorTypeMalformedPayload, message, err)
}

// WrapWrite wraps an error as a write error
func WrapWrite(message string, err error) error {
	return NewDomainError(ErrorTypeWrite, message, err)
}
