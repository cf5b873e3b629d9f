package database

import "context"

// CountPayloads counts rows stored under identifier; the unique index keeps
// this at zero or one.
func (q *Queries) CountPayloads(ctx context.Context, identifier string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payloads WHERE identifier = ?`, identifier).Scan(&n)
	return n, err
}

func (q *Queries) CountTransformations(ctx context.Context, input string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cached_transformations WHERE input = ?`, input).Scan(&n)
	return n, err
}
