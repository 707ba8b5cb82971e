package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Labor cost types. Each one reads its rate from a different column.
const (
	CostFlatRate = "flat_rate"
	CostHourly   = "hourly"
	CostPerPiece = "per_piece"
)

// LaborOperation is one sewing-room operation and its rate.
type LaborOperation struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	CostType     string  `json:"cost_type"`
	FixedCost    float64 `json:"fixed_cost"`
	CostPerHour  float64 `json:"cost_per_hour"`
	CostPerPiece float64 `json:"cost_per_piece"`
	Active       bool    `json:"is_active"`
}

// Rate returns the rate column that matches the cost type.
func (op LaborOperation) Rate() float64 {
	switch op.CostType {
	case CostHourly:
		return op.CostPerHour
	case CostPerPiece:
		return op.CostPerPiece
	default:
		return op.FixedCost
	}
}

// CleaningCost is the per-garment cleaning charge for a garment type.
type CleaningCost struct {
	ID          int64   `json:"id"`
	GarmentType string  `json:"garment_type"`
	FixedCost   float64 `json:"fixed_cost"`
	AvgMinutes  int     `json:"avg_minutes"`
}

// ListLabor returns labor operations in catalog order; activeOnly hides
// retired ones.
func (s *Store) ListLabor(ctx context.Context, activeOnly bool) ([]LaborOperation, error) {
	query := `
		SELECT id, name, cost_type, COALESCE(fixed_cost, 0), COALESCE(cost_per_hour, 0),
			COALESCE(cost_per_piece, 0), is_active
		FROM labor_operations
	`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query labor operations: %w", err)
	}
	defer rows.Close()

	ops := make([]LaborOperation, 0)
	for rows.Next() {
		var op LaborOperation
		if err := rows.Scan(&op.ID, &op.Name, &op.CostType, &op.FixedCost, &op.CostPerHour, &op.CostPerPiece, &op.Active); err != nil {
			return nil, fmt.Errorf("scan labor operation: %w", err)
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labor operations: %w", err)
	}

	return ops, nil
}

func (s *Store) GetLabor(ctx context.Context, id int64) (LaborOperation, error) {
	var op LaborOperation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, cost_type, COALESCE(fixed_cost, 0), COALESCE(cost_per_hour, 0),
			COALESCE(cost_per_piece, 0), is_active
		FROM labor_operations
		WHERE id = ?
	`, id).Scan(&op.ID, &op.Name, &op.CostType, &op.FixedCost, &op.CostPerHour, &op.CostPerPiece, &op.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return LaborOperation{}, fmt.Errorf("labor operation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return LaborOperation{}, fmt.Errorf("query labor operation %d: %w", id, err)
	}
	return op, nil
}

func normalizeLabor(op LaborOperation) (LaborOperation, error) {
	op.Name = strings.TrimSpace(op.Name)
	op.CostType = strings.ToLower(strings.TrimSpace(op.CostType))
	if op.Name == "" {
		return op, invalid("labor operation name is required")
	}
	switch op.CostType {
	case CostFlatRate, CostHourly, CostPerPiece:
	default:
		return op, invalid("cost type must be flat_rate, hourly or per_piece")
	}
	if op.Rate() < 0 {
		return op, invalid("labor rate must be greater than or equal to 0")
	}
	return op, nil
}

// rateColumns stores only the column the cost type reads.
func rateColumns(op LaborOperation) (fixed, perHour, perPiece sql.NullFloat64) {
	fixed = nullFloat(op.FixedCost, op.CostType == CostFlatRate)
	perHour = nullFloat(op.CostPerHour, op.CostType == CostHourly)
	perPiece = nullFloat(op.CostPerPiece, op.CostType == CostPerPiece)
	return fixed, perHour, perPiece
}

func (s *Store) CreateLabor(ctx context.Context, op LaborOperation) (int64, error) {
	op, err := normalizeLabor(op)
	if err != nil {
		return 0, err
	}

	fixed, perHour, perPiece := rateColumns(op)
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO labor_operations (name, cost_type, fixed_cost, cost_per_hour, cost_per_piece, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, op.Name, op.CostType, fixed, perHour, perPiece, op.Active)
	if err != nil {
		return 0, writeErr(err, "insert", "labor operation")
	}
	return result.LastInsertId()
}

func (s *Store) UpdateLabor(ctx context.Context, op LaborOperation) error {
	op, err := normalizeLabor(op)
	if err != nil {
		return err
	}

	fixed, perHour, perPiece := rateColumns(op)
	result, err := s.db.ExecContext(ctx, `
		UPDATE labor_operations
		SET
			name = ?,
			cost_type = ?,
			fixed_cost = ?,
			cost_per_hour = ?,
			cost_per_piece = ?,
			is_active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, op.Name, op.CostType, fixed, perHour, perPiece, op.Active, op.ID)
	if err != nil {
		return writeErr(err, "update", "labor operation")
	}
	return requireAffected(result, "labor operation", op.ID)
}

// DeleteLabor removes an operation no style uses. Retire used ones by
// clearing Active instead.
func (s *Store) DeleteLabor(ctx context.Context, id int64) error {
	if err := s.ensureUnused(ctx, "labor operation", id, `SELECT COUNT(*) FROM style_labor WHERE labor_operation_id = ?`); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM labor_operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete labor operation %d: %w", id, err)
	}
	return requireAffected(result, "labor operation", id)
}

func (s *Store) ListCleaning(ctx context.Context) ([]CleaningCost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, garment_type, fixed_cost, avg_minutes
		FROM cleaning_costs
		ORDER BY garment_type
	`)
	if err != nil {
		return nil, fmt.Errorf("query cleaning costs: %w", err)
	}
	defer rows.Close()

	costs := make([]CleaningCost, 0)
	for rows.Next() {
		var c CleaningCost
		if err := rows.Scan(&c.ID, &c.GarmentType, &c.FixedCost, &c.AvgMinutes); err != nil {
			return nil, fmt.Errorf("scan cleaning cost: %w", err)
		}
		costs = append(costs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cleaning costs: %w", err)
	}

	return costs, nil
}

func (s *Store) GetCleaning(ctx context.Context, id int64) (CleaningCost, error) {
	var c CleaningCost
	err := s.db.QueryRowContext(ctx, `
		SELECT id, garment_type, fixed_cost, avg_minutes
		FROM cleaning_costs
		WHERE id = ?
	`, id).Scan(&c.ID, &c.GarmentType, &c.FixedCost, &c.AvgMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return CleaningCost{}, fmt.Errorf("cleaning cost %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return CleaningCost{}, fmt.Errorf("query cleaning cost %d: %w", id, err)
	}
	return c, nil
}

// CleaningCostFor returns the cleaning cost of a garment type, matched
// case-insensitively.
func (s *Store) CleaningCostFor(ctx context.Context, garmentType string) (CleaningCost, error) {
	gt := strings.TrimSpace(garmentType)
	var c CleaningCost
	err := s.db.QueryRowContext(ctx, `
		SELECT id, garment_type, fixed_cost, avg_minutes
		FROM cleaning_costs
		WHERE garment_type = ?
	`, gt).Scan(&c.ID, &c.GarmentType, &c.FixedCost, &c.AvgMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return CleaningCost{}, fmt.Errorf("cleaning cost for %q: %w", gt, ErrNotFound)
	}
	if err != nil {
		return CleaningCost{}, fmt.Errorf("query cleaning cost for %q: %w", gt, err)
	}
	return c, nil
}

func normalizeCleaning(c CleaningCost) (CleaningCost, error) {
	c.GarmentType = strings.ToUpper(strings.TrimSpace(c.GarmentType))
	if c.GarmentType == "" {
		return c, invalid("garment type is required")
	}
	if err := nonNegative("fixed_cost", c.FixedCost); err != nil {
		return c, err
	}
	if c.AvgMinutes < 0 {
		return c, invalid("avg_minutes must be greater than or equal to 0")
	}
	return c, nil
}

func (s *Store) CreateCleaning(ctx context.Context, c CleaningCost) (int64, error) {
	c, err := normalizeCleaning(c)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO cleaning_costs (garment_type, fixed_cost, avg_minutes)
		VALUES (?, ?, ?)
	`, c.GarmentType, c.FixedCost, c.AvgMinutes)
	if err != nil {
		return 0, writeErr(err, "insert", "cleaning cost")
	}
	return result.LastInsertId()
}

func (s *Store) UpdateCleaning(ctx context.Context, c CleaningCost) error {
	c, err := normalizeCleaning(c)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cleaning_costs
		SET garment_type = ?, fixed_cost = ?, avg_minutes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, c.GarmentType, c.FixedCost, c.AvgMinutes, c.ID)
	if err != nil {
		return writeErr(err, "update", "cleaning cost")
	}
	return requireAffected(result, "cleaning cost", c.ID)
}

func (s *Store) DeleteCleaning(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cleaning_costs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cleaning cost %d: %w", id, err)
	}
	return requireAffected(result, "cleaning cost", id)
}
