// Package database opens the funnel's SQL store and keeps its schema current.
package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SlowQueryThreshold is the duration above which repositories log a query
// as slow.
const SlowQueryThreshold = 100 * time.Millisecond

// Options selects and tunes the backing database.
type Options struct {
	Path         string
	TursoURL     string
	TursoToken   string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
	ConnMaxIdle  time.Duration
}

// DB wraps the sqlx handle with the channeled logger repositories share.
type DB struct {
	*sqlx.DB
	Driver string
	logger *logging.ChanneledLogger
}

// Open connects to Turso when credentials are set and to a local sqlite file
// otherwise, then applies pending migrations.
func Open(ctx context.Context, opts Options, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	driver, dsn := "sqlite3", sqliteDSN(opts.Path)
	if opts.TursoURL != "" {
		driver, dsn = "libsql", fmt.Sprintf("%s?authToken=%s", opts.TursoURL, opts.TursoToken)
	}
	logger.Database().Debug("Creating new database connection", "driverName", driver)

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driver)
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	if driver == "sqlite3" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			conn.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			conn.SetMaxIdleConns(opts.MaxIdleConns)
		}
		conn.SetConnMaxLifetime(opts.ConnMaxLife)
		conn.SetConnMaxIdleTime(opts.ConnMaxIdle)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		logger.Database().Error("Database migration failed", "error", err.Error(), "driverName", driver)
		return nil, err
	}

	logger.Database().Info("Database connection established", "driverName", driver, "duration", time.Since(start))
	return &DB{DB: conn, Driver: driver, logger: logger}, nil
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
}

func migrate(conn *sqlx.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return fmt.Errorf("setting dialect for migrations: %w", err)
	}
	if err := goose.Up(conn.DB, "migrations"); err != nil {
		return fmt.Errorf("applying migration: %w", err)
	}
	return nil
}

// Logger returns the channeled logger the database was opened with.
func (db *DB) Logger() *logging.ChanneledLogger {
	return db.logger
}

// ObserveQuery logs query as slow when it took longer than
// SlowQueryThreshold.
func (db *DB) ObserveQuery(name string, start time.Time) {
	if d := time.Since(start); d > SlowQueryThreshold {
		db.logger.Database().Warn("Slow query detected", "query", name, "duration", d)
	}
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

// Now is the database clock: epoch milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}
