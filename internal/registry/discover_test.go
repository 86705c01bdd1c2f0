package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/modrun/internal/errors"
)

func writeFile(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
		t.Fatal(err)
	}
	// WriteFile is subject to umask; force the exact mode.
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("execute bits are not meaningful on Windows")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cpu.sh"), 0o755)
	writeFile(t, filepath.Join(dir, "memory"), 0o700)
	writeFile(t, filepath.Join(dir, "notes.txt"), 0o644)
	writeFile(t, filepath.Join(dir, ".hidden.sh"), 0o755)
	if err := os.Mkdir(filepath.Join(dir, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}

	descriptors, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(descriptors) != 3 {
		t.Fatalf("len(Discover()) = %d, want 3: %+v", len(descriptors), descriptors)
	}

	want := []struct {
		id      string
		file    string
		enabled bool
	}{
		{"cpu", "cpu.sh", true},
		{"memory", "memory", true},
		{"notes", "notes.txt", false},
	}
	for i, w := range want {
		d := descriptors[i]
		if d.ID != w.id {
			t.Errorf("descriptors[%d].ID = %q, want %q", i, d.ID, w.id)
		}
		if d.Location != filepath.Join(dir, w.file) {
			t.Errorf("descriptors[%d].Location = %q", i, d.Location)
		}
		if d.Enabled != w.enabled {
			t.Errorf("descriptors[%d].Enabled = %v, want %v", i, d.Enabled, w.enabled)
		}
	}
}

func TestDiscover_SameIDDifferentExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cpu.sh"), 0o755)
	writeFile(t, filepath.Join(dir, "cpu.py"), 0o755)
	writeFile(t, filepath.Join(dir, "io.sh"), 0o755)

	_, err := Discover(dir)
	if !errors.Is(err, errors.KindDuplicateID) {
		t.Fatalf("Discover() error = %v, want DuplicateID", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "cpu.py") || !strings.Contains(msg, "cpu.sh") {
		t.Errorf("error %q should name both files", msg)
	}
	if errors.GetExitCode(err) != 2 {
		t.Errorf("exit code = %d, want 2", errors.GetExitCode(err))
	}
}

func TestDiscover_MissingDir(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Discover(missing) error = nil, want error")
	}
}

func TestModuleID(t *testing.T) {
	tests := map[string]string{
		"cpu.sh":         "cpu",
		"gpu_tuning.py":  "gpu_tuning",
		"network":        "network",
		"archive.tar.gz": "archive.tar",
	}
	for in, want := range tests {
		if got := moduleID(in); got != want {
			t.Errorf("moduleID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseManifest(t *testing.T) {
	data := []byte(`
modules:
  - id: cpu
    path: modules/cpu.sh
    description: CPU governor tuning
  - id: gpu
    path: /opt/tune/gpu.sh
    enabled: false
  - id: sysctl
    path: sysctl-apply
`)

	descriptors, err := ParseManifest(data, "/etc/modrun")
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	if len(descriptors) != 3 {
		t.Fatalf("len(descriptors) = %d, want 3", len(descriptors))
	}

	cpu := descriptors[0]
	if cpu.Location != filepath.Join("/etc/modrun", "modules/cpu.sh") {
		t.Errorf("cpu.Location = %q", cpu.Location)
	}
	if !cpu.Enabled {
		t.Error("cpu.Enabled = false, want default true")
	}
	if cpu.Description != "CPU governor tuning" {
		t.Errorf("cpu.Description = %q", cpu.Description)
	}

	if gpu := descriptors[1]; gpu.Location != "/opt/tune/gpu.sh" || gpu.Enabled {
		t.Errorf("gpu = %+v, want absolute path kept and disabled", gpu)
	}
	if sysctl := descriptors[2]; sysctl.Location != "sysctl-apply" {
		t.Errorf("sysctl.Location = %q, want bare command kept", sysctl.Location)
	}
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := map[string]string{
		"schema violation": "modules:\n  - id: cpu\n",
		"unknown key":      "modules:\n  - id: cpu\n    path: x\n    retries: 3\n",
	}
	for name, data := range tests {
		name := name
		data := data
		t.Run(name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(data), "/"); err == nil {
				t.Error("ParseManifest() error = nil, want error")
			}
		})
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modules.yaml")
	if err := os.WriteFile(path, []byte("modules:\n  - id: io\n    path: ./io.sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	descriptors, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if len(descriptors) != 1 || descriptors[0].Location != filepath.Join(dir, "io.sh") {
		t.Errorf("LoadManifest() = %+v", descriptors)
	}

	if _, err := LoadManifest(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadManifest(missing) error = nil, want error")
	}
}
