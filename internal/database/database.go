// Package database centralises sqlx connection helpers.  The default driver
// is go-sql-driver/mysql, which also works with MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn)                    – helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opts)   – pool sizes plus ping retries.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Options tunes one pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int           // extra ping attempts after the first
	RetryBackoff    time.Duration // doubled after each failed attempt
}

// DefaultOptions: 15 open, 5 idle, 30-minute lifetime, two retries.
var DefaultOptions = Options{
	MaxOpenConns:    15,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	Retries:         2,
	RetryBackoff:    500 * time.Millisecond,
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions)
}

// OpenWithOptions opens a pool and pings it, retrying with backoff.
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := pingWithRetry(ctx, db, opts.Retries, opts.RetryBackoff); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// pinger is the part of *sqlx.DB pingWithRetry needs.
type pinger interface {
	PingContext(ctx context.Context) error
}

func pingWithRetry(ctx context.Context, db pinger, retries int, backoff time.Duration) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt >= retries {
			return fmt.Errorf("database ping after %d attempt(s): %w", attempt+1, err)
		}
		zap.L().Warn("database ping failed, retrying",
			zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
}
