package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	"github.com/upb/ami-parentage/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	driver string
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	wrapped := Wrap(db, cfg.Driver, logger)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := wrapped.HealthCheck(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return wrapped, nil
}

// Wrap adopts an already opened pool, e.g. one created by sqlmock
func Wrap(db *sql.DB, driver string, logger *zap.Logger) *DB {
	return &DB{
		DB:     db,
		driver: driver,
		logger: logger,
	}
}

// Driver returns the database/sql driver name
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// EnsureTable creates the parentage table when it does not exist.
// Deployed databases own their schema; this serves local replays and tests.
func (db *DB) EnsureTable(ctx context.Context, table string) error {
	datetime := "DATETIME"
	if db.driver == config.DriverPostgres {
		datetime = "TIMESTAMP"
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			AWSAccountId VARCHAR(32) NOT NULL,
			UserEmail VARCHAR(255) NOT NULL,
			CreationDate %s NOT NULL,
			AMIId VARCHAR(64) NOT NULL,
			ParentId VARCHAR(64) NOT NULL
		)`, table, datetime)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	db.logger.Info("parentage table ready", zap.String("table", table))
	return nil
}
