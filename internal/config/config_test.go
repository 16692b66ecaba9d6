package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskboard/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.IDs.Generator != "nanoid" || cfg.Auth.Token != "mock" || !cfg.Journal.Enabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("location: %v %v", loc, err)
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	cfg, err := config.LoadOptional(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestFromYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	body := "storage:\n  backend: redis\n  redis:\n    addr: cache:6379\nids:\n  generator: uuid\ndisplay:\n  timezone: Europe/Paris\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.Redis.Addr != "cache:6379" || cfg.IDs.Generator != "uuid" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Auth.Token != "mock" {
		t.Fatalf("unset keys should keep defaults: %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Paris" {
		t.Fatalf("location: %v %v", loc, err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"backend":   "storage:\n  backend: s3\n",
		"redisaddr": "storage:\n  backend: redis\n  redis:\n    addr: \"\"\n",
		"generator": "ids:\n  generator: snowflake\n",
		"length":    "ids:\n  length: 1\n",
		"token":     "auth:\n  token: oauth\n",
		"secret":    "auth:\n  token: jwt\n",
		"timezone":  "display:\n  timezone: Mars/Olympus\n",
		"yaml":      "storage: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := config.FromYAML([]byte(body)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault()))
	if err != nil {
		t.Fatalf("parse generated default: %v", err)
	}
	if !strings.HasSuffix(config.Path("ws"), filepath.Join("ws", config.FileName)) {
		t.Fatalf("unexpected path %s", config.Path("ws"))
	}
	if cfg.IDs.Length != 21 {
		t.Fatalf("length = %d", cfg.IDs.Length)
	}
}
