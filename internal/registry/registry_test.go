package registry

import (
	"testing"

	"github.com/AndreyAkinshin/modrun/internal/errors"
	"github.com/AndreyAkinshin/modrun/internal/task"
)

func TestFromDescriptors(t *testing.T) {
	r, err := FromDescriptors([]task.Descriptor{
		{ID: "cpu", Location: "/m/cpu.sh", Enabled: true},
		{ID: "io", Location: "/m/io.sh", Enabled: true},
	})
	if err != nil {
		t.Fatalf("FromDescriptors() error = %v", err)
	}

	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := New()
	if err := r.Register(task.Descriptor{ID: "cpu", Location: "/m/cpu.sh", Enabled: true}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	d, ok := r.Resolve("cpu")
	if !ok {
		t.Fatal("Resolve(cpu) = not found")
	}
	if d.Location != "/m/cpu.sh" {
		t.Errorf("d.Location = %q, want %q", d.Location, "/m/cpu.sh")
	}

	_, ok = r.Resolve("nonexistent")
	if ok {
		t.Error("Resolve(nonexistent) = found, want not found")
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := New()
	if err := r.Register(task.Descriptor{ID: "cpu", Location: "a"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := r.Register(task.Descriptor{ID: "cpu", Location: "b"})
	if err == nil {
		t.Fatal("Register(duplicate) error = nil, want DuplicateID")
	}
	if !errors.Is(err, errors.KindDuplicateID) {
		t.Errorf("Register(duplicate) error kind = %v, want DuplicateID", err)
	}

	// First registration wins.
	d, _ := r.Resolve("cpu")
	if d.Location != "a" {
		t.Errorf("d.Location = %q, want %q", d.Location, "a")
	}
}

func TestRegistry_Register_Invalid(t *testing.T) {
	tests := []struct {
		name string
		d    task.Descriptor
	}{
		{"empty id", task.Descriptor{Location: "x"}},
		{"empty location", task.Descriptor{ID: "cpu"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if err := New().Register(tt.d); err == nil {
				t.Error("Register() error = nil, want error")
			}
		})
	}
}

func TestRegistry_List(t *testing.T) {
	r, err := FromDescriptors([]task.Descriptor{
		{ID: "network", Location: "n", Enabled: true},
		{ID: "gpu", Location: "g", Enabled: false},
		{ID: "cpu", Location: "c", Enabled: true},
	})
	if err != nil {
		t.Fatalf("FromDescriptors() error = %v", err)
	}

	enabled := r.List(false)
	if len(enabled) != 2 {
		t.Fatalf("len(List(false)) = %d, want 2", len(enabled))
	}
	if enabled[0].ID != "cpu" || enabled[1].ID != "network" {
		t.Errorf("List(false) order = [%s %s], want [cpu network]", enabled[0].ID, enabled[1].ID)
	}

	all := r.List(true)
	if len(all) != 3 {
		t.Fatalf("len(List(true)) = %d, want 3", len(all))
	}
	if all[1].ID != "gpu" {
		t.Errorf("List(true)[1] = %q, want gpu", all[1].ID)
	}
}

func TestRegistry_Names(t *testing.T) {
	r, _ := FromDescriptors([]task.Descriptor{
		{ID: "io", Location: "i"},
		{ID: "cpu", Location: "c"},
		{ID: "memory", Location: "m"},
	})

	names := r.Names()
	expected := []string{"cpu", "io", "memory"}
	if len(names) != len(expected) {
		t.Fatalf("len(Names()) = %d, want %d", len(names), len(expected))
	}
	for i, name := range names {
		if name != expected[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, name, expected[i])
		}
	}
}
