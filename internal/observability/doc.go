// Package observability provides structured logging for the AMI parentage
// recorder.
//
// This package implements:
//   - zap logger construction from LOG_LEVEL and LOG_FORMAT
//   - Invocation ID propagation through context
//
// Every pipeline stage logs through the logger returned here.
package observability
