package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/modrun/internal/errors"
	"github.com/AndreyAkinshin/modrun/internal/schema"
	"github.com/AndreyAkinshin/modrun/internal/task"
)

// Discover lists the module files in dir. Each regular, non-hidden file
// becomes a descriptor whose id is the file name without its extension and
// which is enabled when any execute bit is set. Two files mapping to the same
// id (cpu.sh and cpu.py) fail with a DuplicateID error naming both.
func Discover(dir string) ([]task.Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read module directory: %w", err)
	}

	var descriptors []task.Descriptor
	seen := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		// Stat follows symlinks so linked scripts are treated like regular files.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		id := moduleID(name)
		if first, ok := seen[id]; ok {
			return nil, errors.DuplicateModuleFile(id, first, name)
		}
		seen[id] = name

		descriptors = append(descriptors, task.Descriptor{
			ID:       id,
			Location: path,
			Enabled:  info.Mode().Perm()&0o111 != 0,
		})
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].ID < descriptors[j].ID
	})
	return descriptors, nil
}

// moduleID strips the extension: "cpu.sh" becomes "cpu".
func moduleID(fileName string) string {
	if id := strings.TrimSuffix(fileName, filepath.Ext(fileName)); id != "" {
		return id
	}
	return fileName
}

// manifestFile is the on-disk shape of a module manifest.
type manifestFile struct {
	Modules []manifestEntry `yaml:"modules"`
}

type manifestEntry struct {
	ID          string `yaml:"id"`
	Path        string `yaml:"path"`
	Description string `yaml:"description"`
	Enabled     *bool  `yaml:"enabled"`
}

// LoadManifest reads a YAML module manifest. Relative paths are resolved
// against the manifest's directory; bare command names (no separator) are
// kept as-is and looked up in PATH at validation time.
func LoadManifest(path string) ([]task.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data, filepath.Dir(path))
}

// ParseManifest decodes manifest data. baseDir anchors relative paths.
func ParseManifest(data []byte, baseDir string) ([]task.Descriptor, error) {
	if err := schema.ValidateManifest(data); err != nil {
		return nil, errors.Configf("invalid manifest: %v", err)
	}

	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, errors.Configf("failed to parse manifest: %v", err)
	}

	descriptors := make([]task.Descriptor, 0, len(mf.Modules))
	for _, m := range mf.Modules {
		enabled := true
		if m.Enabled != nil {
			enabled = *m.Enabled
		}
		descriptors = append(descriptors, task.Descriptor{
			ID:          m.ID,
			Location:    resolveLocation(m.Path, baseDir),
			Description: m.Description,
			Enabled:     enabled,
		})
	}
	return descriptors, nil
}

func resolveLocation(location, baseDir string) string {
	if filepath.IsAbs(location) {
		return location
	}
	if !strings.ContainsAny(location, "/"+string(filepath.Separator)) {
		return location
	}
	return filepath.Join(baseDir, location)
}
