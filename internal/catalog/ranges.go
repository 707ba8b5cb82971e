package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
	"github.com/JAITteam/ja-uniforms-pricing/internal/sizes"
)

// Global setting keys.
const (
	SettingLabelCost   = "avg_label_cost"
	SettingShipping    = "shipping_cost"
	SettingSublimation = "sublimation_cost"
)

// SizeRange is a named size ladder with its extended tier markup.
type SizeRange struct {
	pricing.SizeRange
	Description string `json:"description"`
}

// Setting is one numeric global setting.
type Setting struct {
	ID          int64   `json:"id"`
	Key         string  `json:"setting_key"`
	Value       float64 `json:"setting_value"`
	Description string  `json:"description"`
}

func (s *Store) ListSizeRanges(ctx context.Context) ([]SizeRange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, regular_sizes, extended_sizes, extended_markup_percent, description
		FROM size_ranges
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query size ranges: %w", err)
	}
	defer rows.Close()

	ranges := make([]SizeRange, 0)
	for rows.Next() {
		var r SizeRange
		if err := rows.Scan(&r.ID, &r.Name, &r.RegularSizes, &r.ExtendedSizes, &r.MarkupPercent, &r.Description); err != nil {
			return nil, fmt.Errorf("scan size range: %w", err)
		}
		ranges = append(ranges, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate size ranges: %w", err)
	}

	return ranges, nil
}

func (s *Store) GetSizeRange(ctx context.Context, id int64) (SizeRange, error) {
	var r SizeRange
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, regular_sizes, extended_sizes, extended_markup_percent, description
		FROM size_ranges
		WHERE id = ?
	`, id).Scan(&r.ID, &r.Name, &r.RegularSizes, &r.ExtendedSizes, &r.MarkupPercent, &r.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return SizeRange{}, fmt.Errorf("size range %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return SizeRange{}, fmt.Errorf("query size range %d: %w", id, err)
	}
	return r, nil
}

func normalizeSizeRange(r SizeRange) (SizeRange, error) {
	r.Name = strings.ToUpper(strings.TrimSpace(r.Name))
	r.RegularSizes = strings.ToUpper(strings.TrimSpace(r.RegularSizes))
	r.ExtendedSizes = strings.ToUpper(strings.TrimSpace(r.ExtendedSizes))
	r.Description = strings.TrimSpace(r.Description)
	if r.Name == "" {
		return r, invalid("size range name is required")
	}
	if len(sizes.Expand(r.RegularSizes)) == 0 {
		return r, invalid("size range %s has no regular sizes", r.Name)
	}
	if r.MarkupPercent < 0 || r.MarkupPercent > 100 {
		return r, invalid("extended markup must be between 0 and 100")
	}
	return r, nil
}

func (s *Store) CreateSizeRange(ctx context.Context, r SizeRange) (int64, error) {
	r, err := normalizeSizeRange(r)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO size_ranges (name, regular_sizes, extended_sizes, extended_markup_percent, description)
		VALUES (?, ?, ?, ?, ?)
	`, r.Name, r.RegularSizes, r.ExtendedSizes, r.MarkupPercent, r.Description)
	if err != nil {
		return 0, writeErr(err, "insert", "size range")
	}
	return result.LastInsertId()
}

func (s *Store) UpdateSizeRange(ctx context.Context, r SizeRange) error {
	r, err := normalizeSizeRange(r)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE size_ranges
		SET name = ?, regular_sizes = ?, extended_sizes = ?, extended_markup_percent = ?, description = ?
		WHERE id = ?
	`, r.Name, r.RegularSizes, r.ExtendedSizes, r.MarkupPercent, r.Description, r.ID)
	if err != nil {
		return writeErr(err, "update", "size range")
	}
	return requireAffected(result, "size range", r.ID)
}

// DeleteSizeRange removes a size range. Styles that used it keep no range.
func (s *Store) DeleteSizeRange(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM size_ranges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete size range %d: %w", id, err)
	}
	return requireAffected(result, "size range", id)
}

func (s *Store) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, setting_key, setting_value, description
		FROM global_settings
		ORDER BY setting_key
	`)
	if err != nil {
		return nil, fmt.Errorf("query global settings: %w", err)
	}
	defer rows.Close()

	settings := make([]Setting, 0)
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.ID, &st.Key, &st.Value, &st.Description); err != nil {
			return nil, fmt.Errorf("scan global setting: %w", err)
		}
		settings = append(settings, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate global settings: %w", err)
	}

	return settings, nil
}

// Setting returns the value stored under key, or fallback when the key is
// not set.
func (s *Store) Setting(ctx context.Context, key string, fallback float64) (float64, error) {
	var v float64
	err := s.db.QueryRowContext(ctx, `SELECT setting_value FROM global_settings WHERE setting_key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("query global setting %s: %w", key, err)
	}
	return v, nil
}

// SetSetting inserts or updates a global setting.
func (s *Store) SetSetting(ctx context.Context, key string, value float64) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return invalid("setting key is required")
	}
	if err := nonNegative(key, value); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO global_settings (setting_key, setting_value)
		VALUES (?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value
	`, key, value); err != nil {
		return fmt.Errorf("upsert global setting %s: %w", key, err)
	}
	return nil
}
