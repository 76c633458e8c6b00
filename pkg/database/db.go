package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Config holds relational store connection parameters.
type Config struct {
	Driver          string
	Host            string
	Port            string
	Username        string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// MaxAttempts bounds the startup ping retries; zero or less means one.
	MaxAttempts int
}

// DB is the database surface fern components depend on. It is satisfied by
// *sqlx.DB and by the transaction wrapper where the signatures overlap.
type DB interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	PingContext(ctx context.Context) error
	Unsafe() *sqlx.DB
	Close() error
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

// Connect opens and pings a connection pool against the configured store.
func Connect(ctx context.Context, cfg Config, logger ectologger.Logger) (DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("Failed to open database connection")
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithBackoff(ctx, db.PingContext, cfg.MaxAttempts, time.Second, logger); err != nil {
		db.Close()
		logger.WithContext(ctx).WithError(err).Errorf("Failed to ping database at %s:%s", cfg.Host, cfg.Port)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithContext(ctx).Infof("Connected to database %s at %s:%s", cfg.Name, cfg.Host, cfg.Port)

	return &DatabaseInstance{DB: db, logger: logger}, nil
}

// pingWithBackoff retries ping up to attempts times, sleeping a fibonacci
// multiple of base between tries. The context cancels the wait.
func pingWithBackoff(ctx context.Context, ping func(context.Context) error, attempts int, base time.Duration, logger ectologger.Logger) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	wait, next := base, base
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		logger.WithContext(ctx).WithError(err).Warnf("Ping failed (attempt %d/%d), retrying in %s", attempt, attempts, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait, next = next, wait+next
	}
	return err
}

// NewDatabaseInstance wraps an existing sqlx pool, mostly for tests.
func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &DatabaseInstance{DB: db, logger: logger}
}
