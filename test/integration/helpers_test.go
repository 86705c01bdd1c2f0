// Package integration contains integration tests for modrun.
package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/AndreyAkinshin/modrun/internal/project"
)

const (
	scriptOK   = "#!/bin/sh\nexit 0\n"
	scriptFail = "#!/bin/sh\necho 'memory pressure' >&2\nexit 1\n"
)

func scriptSleep(seconds string) string {
	return "#!/bin/sh\nsleep " + seconds + "\n"
}

// newProject lays out a modrun project in a temp dir: .modrun/config.json
// with the given body and one executable script per entry in modules.
func newProject(t *testing.T, configJSON string, modules map[string]string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("modules are shell scripts")
	}

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := mkdir(filepath.Join(root, ".modrun")); err != nil {
		t.Fatalf("failed to create .modrun dir: %v", err)
	}
	if err := writeFile(filepath.Join(root, ".modrun", "config.json"), configJSON); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := mkdir(filepath.Join(root, "modules")); err != nil {
		t.Fatalf("failed to create modules dir: %v", err)
	}
	for name, body := range modules {
		if err := os.WriteFile(filepath.Join(root, "modules", name), []byte(body), 0755); err != nil {
			t.Fatalf("failed to write module %s: %v", name, err)
		}
	}
	return root
}

func mkdir(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

// loadProject loads the project rooted at dir, ignoring MODRUN_* variables
// from the test environment.
func loadProject(dir string) (*project.Project, error) {
	return project.Load(project.Options{Dir: dir, Getenv: func(string) string { return "" }})
}

func moduleIDs(p *project.Project) []string {
	var ids []string
	for _, d := range p.Registry.List(true) {
		ids = append(ids, d.ID)
	}
	return ids
}
