package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// VendorKind selects the fabric or the notion vendor list.
type VendorKind string

const (
	FabricVendors VendorKind = "fabric"
	NotionVendors VendorKind = "notion"
)

const firstVendorNumber = 101

// Vendor is a fabric or notion supplier. FreightShipCost only applies to
// fabric vendors and is copied onto every fabric row priced from them.
type Vendor struct {
	ID              int64   `json:"id"`
	Kind            string  `json:"kind"`
	Name            string  `json:"name"`
	VendorCode      string  `json:"vendor_code"`
	FreightShipCost float64 `json:"freight_ship_cost"`
}

func ParseVendorKind(raw string) (VendorKind, error) {
	switch VendorKind(strings.ToLower(strings.TrimSpace(raw))) {
	case FabricVendors:
		return FabricVendors, nil
	case NotionVendors:
		return NotionVendors, nil
	}
	return "", invalid("vendor kind must be fabric or notion")
}

func (k VendorKind) table() string {
	if k == NotionVendors {
		return "notion_vendors"
	}
	return "fabric_vendors"
}

func (k VendorKind) prefix() string {
	if k == NotionVendors {
		return "N"
	}
	return "F"
}

func (k VendorKind) freightColumn() string {
	if k == NotionVendors {
		return "0"
	}
	return "freight_ship_cost"
}

func (k VendorKind) usageQuery() string {
	if k == NotionVendors {
		return `SELECT COUNT(*) FROM notions WHERE notion_vendor_id = ?`
	}
	return `SELECT COUNT(*) FROM fabrics WHERE fabric_vendor_id = ?`
}

func (s *Store) ListVendors(ctx context.Context, kind VendorKind) ([]Vendor, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, COALESCE(vendor_code, ''), %s
		FROM %s
		ORDER BY name
	`, kind.freightColumn(), kind.table()))
	if err != nil {
		return nil, fmt.Errorf("query %s vendors: %w", kind, err)
	}
	defer rows.Close()

	vendors := make([]Vendor, 0)
	for rows.Next() {
		v := Vendor{Kind: string(kind)}
		if err := rows.Scan(&v.ID, &v.Name, &v.VendorCode, &v.FreightShipCost); err != nil {
			return nil, fmt.Errorf("scan %s vendor: %w", kind, err)
		}
		vendors = append(vendors, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s vendors: %w", kind, err)
	}

	return vendors, nil
}

func (s *Store) GetVendor(ctx context.Context, kind VendorKind, id int64) (Vendor, error) {
	v := Vendor{Kind: string(kind)}
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, name, COALESCE(vendor_code, ''), %s
		FROM %s
		WHERE id = ?
	`, kind.freightColumn(), kind.table()), id).Scan(&v.ID, &v.Name, &v.VendorCode, &v.FreightShipCost)
	if errors.Is(err, sql.ErrNoRows) {
		return Vendor{}, fmt.Errorf("%s vendor %d: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return Vendor{}, fmt.Errorf("query %s vendor %d: %w", kind, id, err)
	}
	return v, nil
}

func normalizeVendor(v Vendor) (Vendor, error) {
	v.Name = strings.TrimSpace(v.Name)
	v.VendorCode = strings.ToUpper(strings.TrimSpace(v.VendorCode))
	if v.Name == "" {
		return v, invalid("vendor name is required")
	}
	if err := nonNegative("freight_ship_cost", v.FreightShipCost); err != nil {
		return v, err
	}
	return v, nil
}

// CreateVendor inserts v. An empty vendor code is replaced by the next free
// code for the kind.
func (s *Store) CreateVendor(ctx context.Context, kind VendorKind, v Vendor) (int64, error) {
	v, err := normalizeVendor(v)
	if err != nil {
		return 0, err
	}
	if v.VendorCode == "" {
		if v.VendorCode, err = s.NextVendorCode(ctx, kind); err != nil {
			return 0, err
		}
	}

	var result sql.Result
	if kind == NotionVendors {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO notion_vendors (name, vendor_code)
			VALUES (?, ?)
		`, v.Name, v.VendorCode)
	} else {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO fabric_vendors (name, vendor_code, freight_ship_cost)
			VALUES (?, ?, ?)
		`, v.Name, v.VendorCode, v.FreightShipCost)
	}
	if err != nil {
		return 0, writeErr(err, "insert", string(kind)+" vendor")
	}
	return result.LastInsertId()
}

func (s *Store) UpdateVendor(ctx context.Context, kind VendorKind, v Vendor) error {
	v, err := normalizeVendor(v)
	if err != nil {
		return err
	}

	var result sql.Result
	if kind == NotionVendors {
		result, err = s.db.ExecContext(ctx, `
			UPDATE notion_vendors
			SET name = ?, vendor_code = NULLIF(?, ''), updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, v.Name, v.VendorCode, v.ID)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE fabric_vendors
			SET name = ?, vendor_code = NULLIF(?, ''), freight_ship_cost = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, v.Name, v.VendorCode, v.FreightShipCost, v.ID)
	}
	if err != nil {
		return writeErr(err, "update", string(kind)+" vendor")
	}
	return requireAffected(result, string(kind)+" vendor", v.ID)
}

// DeleteVendor removes a vendor that no fabric or notion references.
func (s *Store) DeleteVendor(ctx context.Context, kind VendorKind, id int64) error {
	if err := s.ensureUnused(ctx, string(kind)+" vendor", id, kind.usageQuery()); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, kind.table()), id)
	if err != nil {
		return fmt.Errorf("delete %s vendor %d: %w", kind, id, err)
	}
	return requireAffected(result, string(kind)+" vendor", id)
}

// NextVendorCode returns the prefix (F or N) followed by one more than the
// highest number in use, starting at 101.
func (s *Store) NextVendorCode(ctx context.Context, kind VendorKind) (string, error) {
	prefix := kind.prefix()
	codes, err := s.codes(ctx, fmt.Sprintf(`SELECT vendor_code FROM %s WHERE vendor_code IS NOT NULL`, kind.table()))
	if err != nil {
		return "", fmt.Errorf("next %s vendor code: %w", kind, err)
	}

	next := firstVendorNumber
	for _, code := range codes {
		n, ok := codeNumber(code, prefix)
		if ok && n >= next {
			next = n + 1
		}
	}
	return prefix + strconv.Itoa(next), nil
}

func (s *Store) codes(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// codeNumber parses codes like F104 or t7.
func codeNumber(code, prefix string) (int, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !strings.HasPrefix(code, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(code[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
