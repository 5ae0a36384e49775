package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/upb/ami-parentage/config"
	"github.com/upb/ami-parentage/models"
	"github.com/upb/ami-parentage/repositories"
	"github.com/upb/ami-parentage/services"
	"go.uber.org/zap"
)

// ParentageRepository implements repositories.ParentageWriter over database/sql
type ParentageRepository struct {
	db     *DB
	table  string
	query  string
	logger *zap.Logger
}

// NewParentageRepository creates a new parentage repository.
// table must already be validated as a plain identifier.
func NewParentageRepository(db *DB, table string, logger *zap.Logger) *ParentageRepository {
	return &ParentageRepository{
		db:     db,
		table:  table,
		query:  insertQuery(db.Driver(), table),
		logger: logger,
	}
}

// insertQuery builds the parameterised insert for the driver's placeholder style
func insertQuery(driver, table string) string {
	placeholders := make([]string, len(models.ParentageColumns))
	for i := range placeholders {
		if driver == config.DriverPostgres {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(models.ParentageColumns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// Open pins one pooled connection for the invocation
func (r *ParentageRepository) Open(ctx context.Context) (repositories.ParentageSession, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, services.WrapWrite("failed to acquire database connection", err)
	}
	return &parentageSession{repo: r, conn: conn}, nil
}

type parentageSession struct {
	repo   *ParentageRepository
	conn   *sql.Conn
	closed bool
}

// Insert inserts a single parentage row
func (s *parentageSession) Insert(ctx context.Context, row *models.ParentageRow) (int64, error) {
	if s.closed {
		return 0, services.WrapWrite("insert on closed session", sql.ErrConnDone)
	}

	result, err := s.conn.ExecContext(ctx, s.repo.query,
		row.AWSAccountID,
		row.UserEmail,
		row.CreationDate,
		row.AMIID,
		row.ParentID,
	)
	if err != nil {
		return 0, services.NewDomainError(services.ErrorTypeWrite, "failed to insert parentage row", err).
			WithDetail("table", s.repo.table).
			WithDetail("ami_id", row.AMIID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, services.WrapWrite("failed to read rows affected", err)
	}

	s.repo.logger.Info("parentage row inserted",
		zap.String("table", s.repo.table),
		zap.String("ami_id", row.AMIID),
		zap.String("parent_id", row.ParentID),
		zap.Int64("rows_affected", affected))
	return affected, nil
}

// Close returns the pinned connection to the pool
func (s *parentageSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
