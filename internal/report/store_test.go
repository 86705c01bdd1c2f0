package report

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/task"
)

func sampleReport() Report {
	r := Aggregate([]task.Result{
		{ID: "cpu", Status: task.StatusSuccess, Duration: 12 * time.Millisecond},
		{ID: "memory", Status: task.StatusTimedOut, Duration: time.Second, Message: "timed out after 1s"},
	}, t0, t1)
	r.Mode = "parallel"
	return r
}

func TestStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"status.json", "status.yaml", "status.yml"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "nested", name)
			s := NewStore(path)
			want := sampleReport()

			if err := s.Save(want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := s.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if !got.StartedAt.Equal(want.StartedAt) || !got.FinishedAt.Equal(want.FinishedAt) {
				t.Errorf("timestamps = %v/%v, want %v/%v", got.StartedAt, got.FinishedAt, want.StartedAt, want.FinishedAt)
			}
			got.StartedAt, got.FinishedAt = want.StartedAt, want.FinishedAt
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Load() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestStore_JSONShape(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "status.json")
	if err := NewStore(path).Save(sampleReport()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"status": "timed_out"`, `"duration_ms": 1000`, `"overall_success": false`, `"errored": 1`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("report JSON missing %s:\n%s", want, data)
		}
	}
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "status.json"))
	for i := 0; i < 3; i++ {
		if err := s.Save(sampleReport()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only status.json", len(entries))
	}
}

func TestStore_LoadRejectsInvalid(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")
	if err := os.WriteFile(path, []byte(`{"results": [{"id": "cpu", "status": "exploded", "duration_ms": 1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(path).Load(); err == nil {
		t.Error("Load() error = nil, want schema error")
	}
	if _, err := NewStore(filepath.Join(dir, "missing.json")).Load(); err == nil {
		t.Error("Load(missing) error = nil, want error")
	}
}
