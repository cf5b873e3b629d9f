package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ports "github.com/ZanzyTHEbar/payload-cache/pcache/cache/ports"
	"github.com/ZanzyTHEbar/payload-cache/pcache/storage/database"
)

// QueryRunner is the slice of *database.DBManager the SQL stores need.
type QueryRunner interface {
	Queries() *database.Queries
	WithTx(ctx context.Context, fn func(*database.Queries) error) error
}

// SQLTransformationStore implements TransformationStore on the embedded SQL database.
type SQLTransformationStore struct {
	db QueryRunner
}

// NewSQLTransformationStore creates a new SQL transformation store.
func NewSQLTransformationStore(db QueryRunner) *SQLTransformationStore {
	return &SQLTransformationStore{db: db}
}

// GetTransformation looks up input by exact match.
func (s *SQLTransformationStore) GetTransformation(ctx context.Context, input string) (ports.CachedTransformation, error) {
	row, err := s.db.Queries().GetTransformation(ctx, input)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.CachedTransformation{}, ports.ErrNotFound
		}
		return ports.CachedTransformation{}, fmt.Errorf("get transformation: %w", err)
	}
	return transformationFromRow(row), nil
}

// PutTransformation inserts t if absent and reads back the stored row, so a
// racing writer's record wins consistently.
func (s *SQLTransformationStore) PutTransformation(ctx context.Context, t ports.CachedTransformation) (ports.CachedTransformation, error) {
	q := s.db.Queries()
	if _, err := q.InsertTransformation(ctx, database.InsertTransformationParams{
		Input:     t.Input,
		Output:    t.Output,
		CreatedAt: toMillis(t.CreatedAt),
	}); err != nil {
		return ports.CachedTransformation{}, fmt.Errorf("insert transformation: %w", err)
	}

	row, err := q.GetTransformation(ctx, t.Input)
	if err != nil {
		return ports.CachedTransformation{}, fmt.Errorf("read back transformation: %w", err)
	}
	return transformationFromRow(row), nil
}

// SQLPayloadStore implements PayloadStore on the embedded SQL database.
type SQLPayloadStore struct {
	db QueryRunner
}

// NewSQLPayloadStore creates a new SQL payload store.
func NewSQLPayloadStore(db QueryRunner) *SQLPayloadStore {
	return &SQLPayloadStore{db: db}
}

// GetPayload looks up identifier by exact match.
func (s *SQLPayloadStore) GetPayload(ctx context.Context, identifier string) (ports.Payload, error) {
	row, err := s.db.Queries().GetPayload(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.Payload{}, ports.ErrNotFound
		}
		return ports.Payload{}, fmt.Errorf("get payload: %w", err)
	}
	return payloadFromRow(row), nil
}

// PutPayload inserts p if absent and returns the stored row in one transaction.
func (s *SQLPayloadStore) PutPayload(ctx context.Context, p ports.Payload) (ports.Payload, bool, error) {
	var (
		stored  database.Payload
		created bool
	)
	err := s.db.WithTx(ctx, func(q *database.Queries) error {
		var err error
		created, err = q.InsertPayload(ctx, database.InsertPayloadParams{
			Identifier: p.Identifier,
			Output:     p.Output,
			CreatedAt:  toMillis(p.CreatedAt),
		})
		if err != nil {
			return fmt.Errorf("insert payload: %w", err)
		}
		stored, err = q.GetPayload(ctx, p.Identifier)
		if err != nil {
			return fmt.Errorf("read back payload: %w", err)
		}
		return nil
	})
	if err != nil {
		return ports.Payload{}, false, err
	}
	return payloadFromRow(stored), created, nil
}

func transformationFromRow(row database.CachedTransformation) ports.CachedTransformation {
	return ports.CachedTransformation{
		Input:     row.Input,
		Output:    row.Output,
		CreatedAt: fromMillis(row.CreatedAt),
	}
}

func payloadFromRow(row database.Payload) ports.Payload {
	return ports.Payload{
		Identifier: row.Identifier,
		Output:     row.Output,
		CreatedAt:  fromMillis(row.CreatedAt),
	}
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

var (
	_ ports.TransformationStore = (*SQLTransformationStore)(nil)
	_ ports.PayloadStore        = (*SQLPayloadStore)(nil)
)
