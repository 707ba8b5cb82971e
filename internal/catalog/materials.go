package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const fabricCodePrefix = "T"

// Fabric is a catalog fabric with its vendor joined in.
type Fabric struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	FabricCode      string  `json:"fabric_code"`
	CostPerYard     float64 `json:"cost_per_yard"`
	Color           string  `json:"color"`
	VendorID        int64   `json:"vendor_id"`
	VendorName      string  `json:"vendor_name"`
	VendorCode      string  `json:"vendor_code"`
	FreightShipCost float64 `json:"freight_ship_cost"`
}

// Notion is a catalog trim item (buttons, zippers, thread) with its vendor.
type Notion struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	CostPerUnit float64 `json:"cost_per_unit"`
	UnitType    string  `json:"unit_type"`
	VendorID    int64   `json:"vendor_id"`
	VendorName  string  `json:"vendor_name"`
}

const fabricSelect = `
	SELECT f.id, f.name, COALESCE(f.fabric_code, ''), f.cost_per_yard, COALESCE(f.color, ''),
		COALESCE(f.fabric_vendor_id, 0), COALESCE(v.name, ''), COALESCE(v.vendor_code, ''),
		COALESCE(v.freight_ship_cost, 0)
	FROM fabrics f
	LEFT JOIN fabric_vendors v ON v.id = f.fabric_vendor_id
`

func scanFabric(row interface{ Scan(...any) error }) (Fabric, error) {
	var f Fabric
	err := row.Scan(&f.ID, &f.Name, &f.FabricCode, &f.CostPerYard, &f.Color,
		&f.VendorID, &f.VendorName, &f.VendorCode, &f.FreightShipCost)
	return f, err
}

// ListFabrics returns all fabrics, or only those of vendorID when it is set.
func (s *Store) ListFabrics(ctx context.Context, vendorID int64) ([]Fabric, error) {
	query := fabricSelect
	var args []any
	if vendorID > 0 {
		query += ` WHERE f.fabric_vendor_id = ?`
		args = append(args, vendorID)
	}
	query += ` ORDER BY f.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fabrics: %w", err)
	}
	defer rows.Close()

	fabrics := make([]Fabric, 0)
	for rows.Next() {
		f, err := scanFabric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fabric: %w", err)
		}
		fabrics = append(fabrics, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fabrics: %w", err)
	}

	return fabrics, nil
}

func (s *Store) GetFabric(ctx context.Context, id int64) (Fabric, error) {
	f, err := scanFabric(s.db.QueryRowContext(ctx, fabricSelect+` WHERE f.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Fabric{}, fmt.Errorf("fabric %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Fabric{}, fmt.Errorf("query fabric %d: %w", id, err)
	}
	return f, nil
}

func normalizeFabric(f Fabric) (Fabric, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.FabricCode = strings.ToUpper(strings.TrimSpace(f.FabricCode))
	f.Color = strings.TrimSpace(f.Color)
	if f.Name == "" {
		return f, invalid("fabric name is required")
	}
	if f.FabricCode != "" && !strings.HasPrefix(f.FabricCode, fabricCodePrefix) {
		return f, invalid("fabric code must start with %s (e.g. T1, T2)", fabricCodePrefix)
	}
	if err := nonNegative("cost_per_yard", f.CostPerYard); err != nil {
		return f, err
	}
	return f, nil
}

// CreateFabric inserts f. An empty fabric code gets the lowest free T code.
func (s *Store) CreateFabric(ctx context.Context, f Fabric) (int64, error) {
	f, err := normalizeFabric(f)
	if err != nil {
		return 0, err
	}
	if f.FabricCode == "" {
		if f.FabricCode, err = s.NextFabricCode(ctx); err != nil {
			return 0, err
		}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO fabrics (name, fabric_code, cost_per_yard, color, fabric_vendor_id)
		VALUES (?, ?, ?, ?, ?)
	`, f.Name, f.FabricCode, f.CostPerYard, f.Color, nullID(f.VendorID))
	if err != nil {
		return 0, writeErr(err, "insert", "fabric")
	}
	return result.LastInsertId()
}

func (s *Store) UpdateFabric(ctx context.Context, f Fabric) error {
	f, err := normalizeFabric(f)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE fabrics
		SET
			name = ?,
			fabric_code = NULLIF(?, ''),
			cost_per_yard = ?,
			color = ?,
			fabric_vendor_id = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, f.Name, f.FabricCode, f.CostPerYard, f.Color, nullID(f.VendorID), f.ID)
	if err != nil {
		return writeErr(err, "update", "fabric")
	}
	return requireAffected(result, "fabric", f.ID)
}

// DeleteFabric removes a fabric that no style uses.
func (s *Store) DeleteFabric(ctx context.Context, id int64) error {
	if err := s.ensureUnused(ctx, "fabric", id, `SELECT COUNT(*) FROM style_fabrics WHERE fabric_id = ?`); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM fabrics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete fabric %d: %w", id, err)
	}
	return requireAffected(result, "fabric", id)
}

// NextFabricCode returns the lowest T code not yet assigned, starting at T1.
func (s *Store) NextFabricCode(ctx context.Context) (string, error) {
	codes, err := s.codes(ctx, `SELECT fabric_code FROM fabrics WHERE fabric_code IS NOT NULL`)
	if err != nil {
		return "", fmt.Errorf("next fabric code: %w", err)
	}

	used := make(map[int]bool, len(codes))
	for _, code := range codes {
		if n, ok := codeNumber(code, fabricCodePrefix); ok {
			used[n] = true
		}
	}
	next := 1
	for used[next] {
		next++
	}
	return fabricCodePrefix + strconv.Itoa(next), nil
}

const notionSelect = `
	SELECT n.id, n.name, n.cost_per_unit, n.unit_type,
		COALESCE(n.notion_vendor_id, 0), COALESCE(v.name, '')
	FROM notions n
	LEFT JOIN notion_vendors v ON v.id = n.notion_vendor_id
`

func scanNotion(row interface{ Scan(...any) error }) (Notion, error) {
	var n Notion
	err := row.Scan(&n.ID, &n.Name, &n.CostPerUnit, &n.UnitType, &n.VendorID, &n.VendorName)
	return n, err
}

// ListNotions returns all notions, or only those of vendorID when it is set.
func (s *Store) ListNotions(ctx context.Context, vendorID int64) ([]Notion, error) {
	query := notionSelect
	var args []any
	if vendorID > 0 {
		query += ` WHERE n.notion_vendor_id = ?`
		args = append(args, vendorID)
	}
	query += ` ORDER BY n.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notions: %w", err)
	}
	defer rows.Close()

	notions := make([]Notion, 0)
	for rows.Next() {
		n, err := scanNotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notion: %w", err)
		}
		notions = append(notions, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notions: %w", err)
	}

	return notions, nil
}

func (s *Store) GetNotion(ctx context.Context, id int64) (Notion, error) {
	n, err := scanNotion(s.db.QueryRowContext(ctx, notionSelect+` WHERE n.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Notion{}, fmt.Errorf("notion %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Notion{}, fmt.Errorf("query notion %d: %w", id, err)
	}
	return n, nil
}

func normalizeNotion(n Notion) (Notion, error) {
	n.Name = strings.TrimSpace(n.Name)
	n.UnitType = strings.ToLower(strings.TrimSpace(n.UnitType))
	if n.UnitType == "" {
		n.UnitType = "each"
	}
	if n.Name == "" {
		return n, invalid("notion name is required")
	}
	if err := nonNegative("cost_per_unit", n.CostPerUnit); err != nil {
		return n, err
	}
	return n, nil
}

func (s *Store) CreateNotion(ctx context.Context, n Notion) (int64, error) {
	n, err := normalizeNotion(n)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO notions (name, cost_per_unit, unit_type, notion_vendor_id)
		VALUES (?, ?, ?, ?)
	`, n.Name, n.CostPerUnit, n.UnitType, nullID(n.VendorID))
	if err != nil {
		return 0, writeErr(err, "insert", "notion")
	}
	return result.LastInsertId()
}

func (s *Store) UpdateNotion(ctx context.Context, n Notion) error {
	n, err := normalizeNotion(n)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE notions
		SET name = ?, cost_per_unit = ?, unit_type = ?, notion_vendor_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, n.Name, n.CostPerUnit, n.UnitType, nullID(n.VendorID), n.ID)
	if err != nil {
		return writeErr(err, "update", "notion")
	}
	return requireAffected(result, "notion", n.ID)
}

// DeleteNotion removes a notion that no style uses.
func (s *Store) DeleteNotion(ctx context.Context, id int64) error {
	if err := s.ensureUnused(ctx, "notion", id, `SELECT COUNT(*) FROM style_notions WHERE notion_id = ?`); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM notions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notion %d: %w", id, err)
	}
	return requireAffected(result, "notion", id)
}
