// Package project provides project discovery and loading functionality.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigDirName is the name of the modrun configuration directory.
const ConfigDirName = ".modrun"

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "config.json"

// ErrNoProjectRoot is returned when .modrun/config.json is not found.
var ErrNoProjectRoot = errors.New(".modrun/config.json not found: not a modrun project (or any parent up to the root)")

// FindRootFrom walks up from the given directory until it finds .modrun/config.json.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		configPath := filepath.Join(dir, ConfigDirName, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}

// rootForConfig returns the directory relative config paths resolve against:
// the parent of .modrun when the file lives there, its own directory otherwise.
func rootForConfig(configPath string) (string, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(abs)
	if filepath.Base(dir) == ConfigDirName {
		return filepath.Dir(dir), nil
	}
	return dir, nil
}
