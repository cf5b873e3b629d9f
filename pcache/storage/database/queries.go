package database

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries runs the cache statements against a DBTX.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy of q bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const getTransformation = `
SELECT id, input, output, created_at
  FROM cached_transformations
 WHERE input = ?
 LIMIT 1
`

// GetTransformation returns sql.ErrNoRows when input has never been stored.
func (q *Queries) GetTransformation(ctx context.Context, input string) (CachedTransformation, error) {
	row := q.db.QueryRowContext(ctx, getTransformation, input)
	var i CachedTransformation
	err := row.Scan(&i.ID, &i.Input, &i.Output, &i.CreatedAt)
	return i, err
}

const insertTransformation = `
INSERT INTO cached_transformations (input, output, created_at)
VALUES (?, ?, ?)
ON CONFLICT (input) DO NOTHING
`

// InsertTransformation inserts the row unless input already exists. It
// reports whether a row was written.
func (q *Queries) InsertTransformation(ctx context.Context, arg InsertTransformationParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertTransformation, arg.Input, arg.Output, arg.CreatedAt)
	if err != nil {
		return false, err
	}
	return affected(res)
}

const getPayload = `
SELECT id, identifier, output, created_at
  FROM payloads
 WHERE identifier = ?
 LIMIT 1
`

// GetPayload returns sql.ErrNoRows when identifier is unknown.
func (q *Queries) GetPayload(ctx context.Context, identifier string) (Payload, error) {
	row := q.db.QueryRowContext(ctx, getPayload, identifier)
	var i Payload
	err := row.Scan(&i.ID, &i.Identifier, &i.Output, &i.CreatedAt)
	return i, err
}

const insertPayload = `
INSERT INTO payloads (identifier, output, created_at)
VALUES (?, ?, ?)
ON CONFLICT (identifier) DO NOTHING
`

// InsertPayload inserts the row unless identifier already exists. It reports
// whether a row was written.
func (q *Queries) InsertPayload(ctx context.Context, arg InsertPayloadParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertPayload, arg.Identifier, arg.Output, arg.CreatedAt)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
