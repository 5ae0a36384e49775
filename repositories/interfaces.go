package repositories

import (
	"context"

	"github.com/upb/ami-parentage/models"
)

// ObjectFetcher retrieves raw log objects from storage
type ObjectFetcher interface {
	// Fetch returns the object's bytes. key must already be percent-decoded.
	// Missing objects and denied access are retrieval errors.
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// ParentageWriter hands out sessions that insert parentage rows
type ParentageWriter interface {
	// Open acquires a session for one invocation. Callers must Close it.
	Open(ctx context.Context) (ParentageSession, error)
}

// ParentageSession inserts rows one statement at a time
type ParentageSession interface {
	// Insert writes a single row and returns the number of rows affected
	Insert(ctx context.Context, row *models.ParentageRow) (int64, error)

	// Close releases whatever the session holds
	Close() error
}
