package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestSetEnvValueReplacesKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OTHER=1\nTASKBOARD_PROJECT=old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := setEnvValue(path, "TASKBOARD_PROJECT", "new"); err != nil {
		t.Fatalf("set: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "OTHER=1\nTASKBOARD_PROJECT=new\n" {
		t.Fatalf("unexpected file:\n%s", data)
	}
}

func TestSelectedProjectReadsWorkspaceEnv(t *testing.T) {
	ws := t.TempDir()
	viper.Set("workspace", ws)
	t.Cleanup(viper.Reset)
	if got := selectedProject(); got != "" {
		t.Fatalf("expected no selection, got %q", got)
	}
	if err := setEnvValue(filepath.Join(ws, ".env"), "TASKBOARD_PROJECT", "p-1"); err != nil {
		t.Fatal(err)
	}
	if got := selectedProject(); got != "p-1" {
		t.Fatalf("expected p-1, got %q", got)
	}
	viper.Set("project", "p-2")
	if got := selectedProject(); got != "p-2" {
		t.Fatalf("explicit project should win, got %q", got)
	}
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	viper.Set("workspace", t.TempDir())
	viper.Set("backend", "memory")
	t.Cleanup(viper.Reset)
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Fatalf("backend override not applied: %s", cfg.Storage.Backend)
	}
	viper.Set("backend", "tape")
	if _, err := loadConfig(); err == nil {
		t.Fatalf("expected invalid backend to fail")
	}
}
