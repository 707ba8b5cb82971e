// Package catalog stores the master cost lists a style is priced from:
// vendors, fabrics, notions, labor operations, cleaning costs, size ranges,
// colors, variables, clients and global settings.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid input")
	ErrDuplicate = errors.New("already exists")
	ErrInUse     = errors.New("in use")
)

// Store reads and writes the catalog tables.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// writeErr maps a failed insert or update onto the catalog sentinels.
func writeErr(err error, action, what string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w", action, what, ErrDuplicate)
	}
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%s %s: %w: unknown reference", action, what, ErrInvalid)
	}
	return fmt.Errorf("%s %s: %w", action, what, err)
}

func requireAffected(result sql.Result, what string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows for %s %d: %w", what, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

// ensureUnused fails with ErrInUse when query counts any referencing rows.
func (s *Store) ensureUnused(ctx context.Context, what string, id int64, query string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return fmt.Errorf("check usage of %s %d: %w", what, id, err)
	}
	if count > 0 {
		return fmt.Errorf("%s %d is referenced by %d rows: %w", what, id, count, ErrInUse)
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if v < 0 {
		return invalid("%s must be greater than or equal to 0", field)
	}
	return nil
}

func nullFloat(v float64, valid bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: valid}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
