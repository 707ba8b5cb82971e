package seed

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	LabelCost     float64
	ShippingCost  float64
	Sublimation   float64
}

// DefaultConfig returns a Config carrying the stock global settings.
func DefaultConfig(email, password string) Config {
	return Config{
		AdminEmail:    email,
		AdminPassword: password,
		LabelCost:     0.20,
		ShippingCost:  0,
		Sublimation:   6.00,
	}
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

type laborOp struct {
	name     string
	costType string
	fixed    float64
	perHour  float64
	perPiece float64
}

var laborOps = []laborOp{
	{name: "FUSION", costType: "flat_rate", fixed: 1.50},
	{name: "MARKER+CUT", costType: "flat_rate", fixed: 1.00},
	{name: "SEWING", costType: "hourly", perHour: 20.00},
	{name: "BUTTON/SNAP/GROMMET", costType: "per_piece", perPiece: 0.15},
}

type cleaning struct {
	garmentType string
	cost        float64
	minutes     int
}

var cleaningCosts = []cleaning{
	{"APRON", 0.96, 3},
	{"VEST", 1.28, 4},
	{"SS TOP/SS DRESS", 1.60, 5},
	{"LS TOP/LS DRESS", 2.24, 7},
	{"SHORTS/SKIRTS", 1.28, 4},
	{"PANTS", 1.60, 5},
	{"SS JACKET/LINED SS DRESS", 3.20, 10},
	{"LS JACKET/LINED LS DRESS", 3.84, 12},
}

type sizeRange struct {
	name     string
	regular  string
	extended string
	markup   float64
	desc     string
}

var sizeRanges = []sizeRange{
	{"XS-6XL", "XS-XL", "2XL-6XL", 15, "Standard unisex range"},
	{"XS-4XL", "XS-XL", "2XL-4XL", 15, "Short extended range"},
	{"XS-XL", "XS-XL", "", 15, "Regular sizes only"},
	{"OSFA", "OSFA", "", 15, "One size fits all"},
	{"WOMEN 0-24", "0-16", "18-24", 15, "Women's numeric"},
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	steps := []func(*sql.Tx, Config, *Stats) error{
		seedAdmin,
		ensureLaborOperations,
		ensureCleaningCosts,
		ensureSizeRanges,
		ensureGlobalSettings,
	}
	for _, step := range steps {
		if err := step(tx, cfg, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, cfg Config, stats *Stats) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, cfg.AdminEmail).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, cfg.AdminEmail, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureLaborOperations(tx *sql.Tx, _ Config, stats *Stats) error {
	for _, op := range laborOps {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM labor_operations WHERE name = ? LIMIT 1)`, op.name).Scan(&exists); err != nil {
			return fmt.Errorf("check labor operation %s: %w", op.name, err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO labor_operations (name, cost_type, fixed_cost, cost_per_hour, cost_per_piece, is_active)
			VALUES (?, ?, ?, ?, ?, TRUE)
		`, op.name, op.costType, nullIfZero(op.fixed), nullIfZero(op.perHour), nullIfZero(op.perPiece)); err != nil {
			return fmt.Errorf("insert labor operation %s: %w", op.name, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureCleaningCosts(tx *sql.Tx, _ Config, stats *Stats) error {
	for _, c := range cleaningCosts {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM cleaning_costs WHERE garment_type = ? LIMIT 1)`, c.garmentType).Scan(&exists); err != nil {
			return fmt.Errorf("check cleaning cost %s: %w", c.garmentType, err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO cleaning_costs (garment_type, fixed_cost, avg_minutes)
			VALUES (?, ?, ?)
		`, c.garmentType, c.cost, c.minutes); err != nil {
			return fmt.Errorf("insert cleaning cost %s: %w", c.garmentType, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureSizeRanges(tx *sql.Tx, _ Config, stats *Stats) error {
	for _, r := range sizeRanges {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM size_ranges WHERE name = ? LIMIT 1)`, r.name).Scan(&exists); err != nil {
			return fmt.Errorf("check size range %s: %w", r.name, err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO size_ranges (name, regular_sizes, extended_sizes, extended_markup_percent, description)
			VALUES (?, ?, ?, ?, ?)
		`, r.name, r.regular, r.extended, r.markup, r.desc); err != nil {
			return fmt.Errorf("insert size range %s: %w", r.name, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureGlobalSettings(tx *sql.Tx, cfg Config, stats *Stats) error {
	settings := []struct {
		key   string
		value float64
		desc  string
	}{
		{"avg_label_cost", cfg.LabelCost, "Average label cost per garment"},
		{"shipping_cost", cfg.ShippingCost, "Default shipping cost per garment"},
		{"sublimation_cost", cfg.Sublimation, "Sublimation surcharge per yard"},
	}

	for _, s := range settings {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM global_settings WHERE setting_key = ? LIMIT 1)`, s.key).Scan(&exists); err != nil {
			return fmt.Errorf("check global setting %s: %w", s.key, err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO global_settings (setting_key, setting_value, description)
			VALUES (?, ?, ?)
		`, s.key, s.value, s.desc); err != nil {
			return fmt.Errorf("insert global setting %s: %w", s.key, err)
		}
		stats.Inserts++
	}
	return nil
}

func nullIfZero(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}
