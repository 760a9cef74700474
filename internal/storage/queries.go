package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type SessionEntry struct {
	Key   string
	Value string
}

const getEntry = `SELECT key, value FROM session_entries WHERE key = ?`

func (q *Queries) GetEntry(ctx context.Context, key string) (SessionEntry, error) {
	row := q.db.QueryRowContext(ctx, getEntry, key)
	var e SessionEntry
	err := row.Scan(&e.Key, &e.Value)
	return e, err
}

const upsertEntry = `INSERT INTO session_entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

type UpsertEntryParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

func (q *Queries) UpsertEntry(ctx context.Context, arg UpsertEntryParams) error {
	_, err := q.db.ExecContext(ctx, upsertEntry, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const deleteEntry = `DELETE FROM session_entries WHERE key = ?`

func (q *Queries) DeleteEntry(ctx context.Context, key string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEntry, key)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
