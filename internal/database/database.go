package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// sqlDriverPgx is the database/sql name registered by pgx/v5/stdlib.
	sqlDriverPgx = "pgx"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type Options struct {
	MaxConns int32
	MinConns int32
}

// DB is the shared handle for the live catalog and the trash store.
type DB struct {
	*sqlx.DB
	driver string
	pool   *pgxpool.Pool
}

func Open(ctx context.Context, driver string, dsn string, opts Options) (*DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres, sqlDriverPgx:
		return openPostgres(ctx, dsn, opts)
	case DriverSQLite:
		return openSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openPostgres(ctx context.Context, databaseURL string, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), sqlDriverPgx)
	slog.Info("database connected", "driver", DriverPostgres, "max_conns", cfg.MaxConns, "min_conns", cfg.MinConns)
	return &DB{DB: db, driver: DriverPostgres, pool: pool}, nil
}

// openSQLite opens an embedded database. A single connection serializes
// writers, so callers inside WithTx must use the transaction handle.
func openSQLite(ctx context.Context, dsn string) (*DB, error) {
	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	slog.Debug("database connected", "driver", DriverSQLite)
	return &DB{DB: db, driver: DriverSQLite}, nil
}

// SQLiteDSN builds a file DSN with foreign keys and a busy timeout.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) Close() {
	if db == nil {
		return
	}
	if db.DB != nil {
		_ = db.DB.Close()
	}
	if db.pool != nil {
		db.pool.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// IsPostgres reports whether q talks to PostgreSQL.
func IsPostgres(q sqlx.ExtContext) bool {
	return q.DriverName() == sqlDriverPgx
}
