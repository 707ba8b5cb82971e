package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// NamedKind selects one of the simple name lists attached to a style.
type NamedKind string

const (
	Colors    NamedKind = "colors"
	Variables NamedKind = "variables"
	Clients   NamedKind = "clients"
)

// Named is a color, variable or client. Code is only kept for colors.
type Named struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"color_code,omitempty"`
}

// ImportResult counts the outcome of a bulk color import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func ParseNamedKind(raw string) (NamedKind, error) {
	switch k := NamedKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case Colors, Variables, Clients:
		return k, nil
	}
	return "", invalid("list must be colors, variables or clients")
}

func (k NamedKind) codeColumn() string {
	if k == Colors {
		return "color_code"
	}
	return "''"
}

func (k NamedKind) usageQuery() string {
	switch k {
	case Colors:
		return `SELECT COUNT(*) FROM style_colors WHERE color_id = ?`
	case Variables:
		return `SELECT COUNT(*) FROM style_variables WHERE variable_id = ?`
	default:
		return `SELECT COUNT(*) FROM style_clients WHERE client_id = ?`
	}
}

func (k NamedKind) singular() string {
	return strings.TrimSuffix(string(k), "s")
}

// normalizeName upper-cases colors; variables and clients keep their case.
func (k NamedKind) normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if k == Colors {
		name = strings.ToUpper(name)
	}
	return name
}

func (s *Store) ListNamed(ctx context.Context, kind NamedKind) ([]Named, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, %s
		FROM %s
		ORDER BY name
	`, kind.codeColumn(), kind))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	items := make([]Named, 0)
	for rows.Next() {
		var n Named
		if err := rows.Scan(&n.ID, &n.Name, &n.Code); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind.singular(), err)
		}
		items = append(items, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}

	return items, nil
}

func (s *Store) GetNamed(ctx context.Context, kind NamedKind, id int64) (Named, error) {
	var n Named
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, name, %s FROM %s WHERE id = ?
	`, kind.codeColumn(), kind), id).Scan(&n.ID, &n.Name, &n.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return Named{}, fmt.Errorf("%s %d: %w", kind.singular(), id, ErrNotFound)
	}
	if err != nil {
		return Named{}, fmt.Errorf("query %s %d: %w", kind.singular(), id, err)
	}
	return n, nil
}

func (s *Store) CreateNamed(ctx context.Context, kind NamedKind, n Named) (int64, error) {
	n.Name = kind.normalizeName(n.Name)
	if n.Name == "" {
		return 0, invalid("%s name is required", kind.singular())
	}

	var result sql.Result
	var err error
	if kind == Colors {
		result, err = s.db.ExecContext(ctx, `INSERT INTO colors (name, color_code) VALUES (?, ?)`, n.Name, strings.TrimSpace(n.Code))
	} else {
		result, err = s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (name) VALUES (?)`, kind), n.Name)
	}
	if err != nil {
		return 0, writeErr(err, "insert", kind.singular())
	}
	return result.LastInsertId()
}

func (s *Store) UpdateNamed(ctx context.Context, kind NamedKind, n Named) error {
	n.Name = kind.normalizeName(n.Name)
	if n.Name == "" {
		return invalid("%s name is required", kind.singular())
	}

	var result sql.Result
	var err error
	if kind == Colors {
		result, err = s.db.ExecContext(ctx, `UPDATE colors SET name = ?, color_code = ? WHERE id = ?`, n.Name, strings.TrimSpace(n.Code), n.ID)
	} else {
		result, err = s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET name = ? WHERE id = ?`, kind), n.Name, n.ID)
	}
	if err != nil {
		return writeErr(err, "update", kind.singular())
	}
	return requireAffected(result, kind.singular(), n.ID)
}

// DeleteNamed removes an entry that no style references.
func (s *Store) DeleteNamed(ctx context.Context, kind NamedKind, id int64) error {
	if err := s.ensureUnused(ctx, kind.singular(), id, kind.usageQuery()); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, kind), id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind.singular(), id, err)
	}
	return requireAffected(result, kind.singular(), id)
}

// ImportColors inserts every name not yet in the color list. Blank names and
// names already present, in any case, count as skipped.
func (s *Store) ImportColors(ctx context.Context, names []string) (ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("begin color import: %w", err)
	}
	defer tx.Rollback()

	var res ImportResult
	for _, raw := range names {
		name := Colors.normalizeName(raw)
		if name == "" {
			res.Skipped++
			continue
		}
		result, err := tx.ExecContext(ctx, `INSERT INTO colors (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
		if err != nil {
			return ImportResult{}, fmt.Errorf("import color %s: %w", name, err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			res.Skipped++
			continue
		}
		res.Imported++
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("commit color import: %w", err)
	}
	return res, nil
}

// ReadColorNames reads the "Color" column of the first sheet of an xlsx
// workbook. Without such a header the first column is used.
func ReadColorNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open color workbook: %v", ErrInvalid, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, invalid("color workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read color sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := slices.IndexFunc(rows[0], func(h string) bool {
		return strings.EqualFold(strings.TrimSpace(h), "color")
	})
	start := 1
	if col < 0 {
		col, start = 0, 0
	}

	var names []string
	for _, row := range rows[start:] {
		if col < len(row) && strings.TrimSpace(row[col]) != "" {
			names = append(names, strings.TrimSpace(row[col]))
		}
	}
	return names, nil
}
