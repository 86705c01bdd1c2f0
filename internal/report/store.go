package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/modrun/internal/schema"
)

// Store persists the most recent report at a fixed path. Files ending in
// .yaml or .yml are written as YAML, anything else as JSON.
type Store struct {
	path string
}

// NewStore creates a store for path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store writes to.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes r atomically: readers see either the old or the new report.
func (s *Store) Save(r Report) error {
	var data []byte
	var err error
	if s.isYAML() {
		data, err = yaml.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// Load reads the stored report, validating it against the report schema.
func (s *Store) Load() (Report, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Report{}, fmt.Errorf("read report: %w", err)
	}
	if err := schema.ValidateReport(data, s.isYAML()); err != nil {
		return Report{}, err
	}

	var r Report
	if s.isYAML() {
		err = yaml.Unmarshal(data, &r)
	} else {
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return Report{}, fmt.Errorf("parse report: %w", err)
	}
	return r, nil
}
