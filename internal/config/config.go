package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	defaultDBPath    = "./dev.db"
	defaultPort      = "8080"
	defaultUploadDir = "uploads"
	defaultAppEnv    = "dev"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	UploadDir     string
	AppEnv        string
	Pricing       Pricing
}

// Pricing holds the defaults a new style starts from. They can be overridden
// by the TOML file named in PRICING_CONFIG.
type Pricing struct {
	SublimationSurcharge  float64 `toml:"sublimation_surcharge"`
	DefaultMargin         float64 `toml:"default_margin"`
	DefaultLabelCost      float64 `toml:"default_label_cost"`
	DefaultShippingCost   float64 `toml:"default_shipping_cost"`
	DefaultExtendedMarkup float64 `toml:"default_extended_markup"`
}

// DefaultPricing returns the built-in pricing defaults.
func DefaultPricing() Pricing {
	return Pricing{
		SublimationSurcharge:  6.00,
		DefaultMargin:         60,
		DefaultLabelCost:      0.20,
		DefaultShippingCost:   0,
		DefaultExtendedMarkup: 15,
	}
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: a missing .env is normal outside local development.
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: load .env: %v", err)
	}

	cfg := Config{
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        os.Getenv("DB_PATH"),
		Port:          os.Getenv("PORT"),
		UploadDir:     os.Getenv("UPLOAD_DIR"),
		AppEnv:        strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))),
		Pricing:       DefaultPricing(),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = defaultUploadDir
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = defaultAppEnv
	}

	if path := os.Getenv("PRICING_CONFIG"); path != "" {
		pricing, err := LoadPricing(path, cfg.Pricing)
		if err != nil {
			log.Printf("warning: %v; using built-in pricing defaults", err)
		} else {
			cfg.Pricing = pricing
		}
	}

	if cfg.AdminEmail == "" {
		log.Print("warning: ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Print("warning: ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Print("warning: SESSION_SECRET is not set")
	}

	return cfg
}

// IsDev reports whether the app runs in a development environment, where
// migrations are applied on startup.
func (c Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// LoadPricing reads a TOML pricing file over base. Keys missing from the file
// keep the value from base; negative values are rejected.
func LoadPricing(path string, base Pricing) (Pricing, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read pricing config %s: %w", path, err)
	}

	out := base
	if err := toml.Unmarshal(raw, &out); err != nil {
		return base, fmt.Errorf("parse pricing config %s: %w", path, err)
	}

	if out.SublimationSurcharge < 0 || out.DefaultMargin < 0 || out.DefaultLabelCost < 0 ||
		out.DefaultShippingCost < 0 || out.DefaultExtendedMarkup < 0 {
		return base, fmt.Errorf("pricing config %s: values must not be negative", path)
	}
	if out.DefaultMargin > 95 {
		return base, fmt.Errorf("pricing config %s: default_margin must be at most 95", path)
	}
	return out, nil
}
