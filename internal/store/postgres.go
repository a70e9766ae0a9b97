package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gameportal/portal/internal/infra"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so the store works with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PgStore maps collections onto Postgres tables of the same name.
type PgStore struct {
	db DBTX
}

// NewPgStore returns a Postgres-backed Store.
func NewPgStore(db DBTX) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) List(ctx context.Context, c Collection, q Query) ([]Record, error) {
	sql, args, err := buildSelect(c, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	recs, err := collectRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	return recs, nil
}

func (s *PgStore) Create(ctx context.Context, c Collection, rec Record) (Record, error) {
	sql, args, err := buildInsert(c, rec)
	if err != nil {
		return nil, err
	}
	out, err := s.one(ctx, sql, args)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create %s %s: %w", c, rec.ID(), ErrDuplicate)
		}
		return nil, fmt.Errorf("create %s: %w", c, err)
	}
	return out, nil
}

func (s *PgStore) Update(ctx context.Context, c Collection, id string, fields Record) (Record, error) {
	sql, args, err := buildUpdate(c, id, fields)
	if err != nil {
		return nil, err
	}
	out, err := s.one(ctx, sql, args)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("update %s %s: %w", c, id, ErrNotFound)
		}
		return nil, fmt.Errorf("update %s: %w", c, err)
	}
	return out, nil
}

func (s *PgStore) one(ctx context.Context, sql string, args []any) (Record, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	recs, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	fds := rows.FieldDescriptions()
	out := make([]Record, 0)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec := make(Record, len(fds))
		for i, fd := range fds {
			v, err := fromPg(vals[i])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", fd.Name, err)
			}
			rec[fd.Name] = v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// fromPg converts driver-specific values into the plain Go values the
// rest of the store understands.
func fromPg(v any) (any, error) {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil, nil
		}
		return infra.NumericToFloat64(x)
	case [16]byte:
		return uuid.UUID(x).String(), nil
	}
	return v, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
