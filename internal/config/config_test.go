package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"DB_PATH", "PORT", "UPLOAD_DIR", "APP_ENV", "PRICING_CONFIG"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.DBPath != defaultDBPath {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, defaultDBPath)
	}
	if cfg.Port != defaultPort {
		t.Fatalf("Port = %q, want %q", cfg.Port, defaultPort)
	}
	if cfg.UploadDir != defaultUploadDir {
		t.Fatalf("UploadDir = %q, want %q", cfg.UploadDir, defaultUploadDir)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected default environment to be dev")
	}
	if cfg.Pricing != DefaultPricing() {
		t.Fatalf("Pricing = %+v, want defaults", cfg.Pricing)
	}
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := strings.Join([]string{
		"# local settings",
		"export PORT=9090",
		`DB_PATH="/tmp/from-dotenv.db"`,
		"APP_ENV=production",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("PORT", "7000")
	t.Setenv("DB_PATH", "")
	t.Setenv("APP_ENV", "")
	os.Unsetenv("DB_PATH")
	os.Unsetenv("APP_ENV")

	cfg := Load()
	if cfg.Port != "7000" {
		t.Fatalf("Port = %q, want existing env value 7000", cfg.Port)
	}
	if cfg.DBPath != "/tmp/from-dotenv.db" {
		t.Fatalf("DBPath = %q, want value from .env", cfg.DBPath)
	}
	if cfg.IsDev() {
		t.Fatalf("expected production environment from .env")
	}
}

func TestLoadPricingOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.toml")
	content := "sublimation_surcharge = 7.5\ndefault_margin = 55\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}

	got, err := LoadPricing(path, DefaultPricing())
	if err != nil {
		t.Fatalf("LoadPricing: %v", err)
	}
	if got.SublimationSurcharge != 7.5 || got.DefaultMargin != 55 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.DefaultLabelCost != 0.20 || got.DefaultExtendedMarkup != 15 {
		t.Fatalf("unset keys should keep defaults: %+v", got)
	}
}

func TestLoadPricingRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"negative": "default_label_cost = -1\n",
		"margin":   "default_margin = 99\n",
		"syntax":   "default_margin = \n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("write pricing file: %v", err)
			}
			got, err := LoadPricing(path, DefaultPricing())
			if err == nil {
				t.Fatalf("expected error for %s", name)
			}
			if got != DefaultPricing() {
				t.Fatalf("expected base pricing on error, got %+v", got)
			}
		})
	}
}

func TestLoadPricingFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "pricing.toml")
	if err := os.WriteFile(path, []byte("default_extended_markup = 20\n"), 0o600); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}
	t.Setenv("PRICING_CONFIG", path)

	cfg := Load()
	if cfg.Pricing.DefaultExtendedMarkup != 20 {
		t.Fatalf("DefaultExtendedMarkup = %v, want 20", cfg.Pricing.DefaultExtendedMarkup)
	}
}
