// Package storage persists the durable session tier in a local SQLite file.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"expensectl/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  log.OrDiscard(logger).WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Name identifies the backend in logs and status output.
func (r *SQLiteRepository) Name() string { return "sqlite" }

// Get returns the stored value; ok is false when the key is absent.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, bool, error) {
	e, err := r.queries.GetEntry(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session entry %q: %w", key, err)
	}
	return e.Value, true, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key, value string) error {
	err := r.queries.UpsertEntry(ctx, UpsertEntryParams{
		Key:       key,
		Value:     value,
		UpdatedAt: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("set session entry %q: %w", key, err)
	}
	r.logger.DebugContext(ctx, "Session entry saved to SQLite", "key", key)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	n, err := r.queries.DeleteEntry(ctx, key)
	if err != nil {
		return fmt.Errorf("delete session entry %q: %w", key, err)
	}
	if n > 0 {
		r.logger.DebugContext(ctx, "Session entry removed from SQLite", "key", key)
	}
	return nil
}
