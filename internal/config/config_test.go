package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidMinimal(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Run != nil || cfg.Modules != nil {
		t.Errorf("Load() applied defaults: %+v", cfg)
	}
}

func TestLoad_ValidFull(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `{
		"$schema": "https://example.com/modrun.schema.json",
		"modules": {"directory": "opt", "manifest": ".modrun/modules.yaml"},
		"run": {"mode": "parallel", "concurrency": 4, "timeout": 2.5, "continue_on_failure": true},
		"lock_file": "/tmp/custom.lock",
		"status_file": "status.yaml"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Modules.Directory != "opt" || cfg.Modules.Manifest != ".modrun/modules.yaml" {
		t.Errorf("Modules = %+v", cfg.Modules)
	}
	if cfg.Run.Mode != ModeParallel || cfg.Run.Concurrency != 4 || !cfg.Run.ContinueOnFailure {
		t.Errorf("Run = %+v", cfg.Run)
	}
	if got := cfg.Run.TimeoutDuration(); got != 2500*time.Millisecond {
		t.Errorf("TimeoutDuration() = %v, want 2.5s", got)
	}
	if cfg.LockFile != "/tmp/custom.lock" || cfg.StatusFile != "status.yaml" {
		t.Errorf("files = %q, %q", cfg.LockFile, cfg.StatusFile)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()
	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "no such file") && !strings.Contains(err.Error(), "nonexistent") {
		t.Errorf("error = %q, want to mention the missing file", err)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"run": `},
		{"unknown top-level field", `{"targets": {}}`},
		{"unknown run field", `{"run": {"workers": 3}}`},
		{"bad mode", `{"run": {"mode": "batch"}}`},
		{"zero concurrency", `{"run": {"concurrency": 0}}`},
		{"concurrency too high", `{"run": {"concurrency": 257}}`},
		{"negative timeout", `{"run": {"timeout": -1}}`},
		{"string timeout", `{"run": {"timeout": "30"}}`},
		{"empty lock file", `{"lock_file": ""}`},
		{"array root", `[]`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load(%s) error = nil, want error", tt.content)
			}
			if errors.GetExitCode(err) != errors.ExitConfigError {
				t.Errorf("exit code = %d, want %d", errors.GetExitCode(err), errors.ExitConfigError)
			}
		})
	}
}

func TestLoadWithDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadWithDefaults(writeConfig(t, `{"run": {"concurrency": 2}}`))
	if err != nil {
		t.Fatalf("LoadWithDefaults() error = %v", err)
	}
	if cfg.Modules.Directory != DefaultModulesDirectory {
		t.Errorf("Modules.Directory = %q, want %q", cfg.Modules.Directory, DefaultModulesDirectory)
	}
	if cfg.Run.Mode != DefaultMode {
		t.Errorf("Run.Mode = %q, want %q", cfg.Run.Mode, DefaultMode)
	}
	if cfg.Run.Timeout != DefaultTimeoutSeconds {
		t.Errorf("Run.Timeout = %v, want %v", cfg.Run.Timeout, DefaultTimeoutSeconds)
	}
	if cfg.Run.Concurrency != 2 {
		t.Errorf("Run.Concurrency = %d, want 2 (explicit value kept)", cfg.Run.Concurrency)
	}
	if cfg.StatusFile != DefaultStatusFile {
		t.Errorf("StatusFile = %q, want %q", cfg.StatusFile, DefaultStatusFile)
	}
	if cfg.LockFile != "" {
		t.Errorf("LockFile = %q, want empty", cfg.LockFile)
	}
}

func TestLoadAndValidate_Warnings(t *testing.T) {
	t.Parallel()
	cfg, warnings, err := LoadAndValidate(writeConfig(t, `{"run": {"mode": "parallel", "continue_on_failure": true}}`))
	if err != nil {
		t.Fatalf("LoadAndValidate() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadAndValidate() returned nil config")
	}
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "continue_on_failure") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want continue_on_failure warning", warnings)
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()
	if cfg.Run == nil || cfg.Modules == nil {
		t.Fatalf("Default() = %+v, want populated sections", cfg)
	}
	if _, err := Validate(cfg); err != nil {
		t.Errorf("Validate(Default()) error = %v", err)
	}
}
