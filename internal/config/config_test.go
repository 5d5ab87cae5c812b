package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Database.DSN != "" {
		t.Fatalf("dsn = %q, want empty", cfg.Database.DSN)
	}
}

func TestLoadMissingFileIsOptional(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9090"
database:
  dsn: "postgres://localhost/marketplace"
logging:
  level: debug
  format: json
migration:
  schedule: "0 3 * * *"
  page_size: 50
  replace: false
  continue_on_error: true
registrar:
  endpoint: "https://registrar.example"
  api_key: "key"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Database.DSN != "postgres://localhost/marketplace" {
		t.Fatalf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Migration.Schedule != "0 3 * * *" || cfg.Migration.PageSize != 50 {
		t.Fatalf("migration = %+v", cfg.Migration)
	}
	if cfg.Migration.Replace == nil || *cfg.Migration.Replace {
		t.Fatalf("replace = %v, want false", cfg.Migration.Replace)
	}
	if !cfg.Migration.ContinueOnError {
		t.Fatal("continue_on_error = false, want true")
	}
	if cfg.Registrar.Endpoint != "https://registrar.example" {
		t.Fatalf("registrar = %+v", cfg.Registrar)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "http:\n  addr: \":9090\"\n")

	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("MIGRATION_PAGE_SIZE", "25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("addr = %q, env must win", cfg.HTTP.Addr)
	}
	if cfg.Migration.PageSize != 25 {
		t.Fatalf("page size = %d", cfg.Migration.PageSize)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "http: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadRejectsNegativePageSize(t *testing.T) {
	path := writeConfig(t, "migration:\n  page_size: -1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}
