package project

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/modrun/internal/config"
	"github.com/AndreyAkinshin/modrun/internal/errors"
	"github.com/AndreyAkinshin/modrun/internal/registry"
	"github.com/AndreyAkinshin/modrun/internal/task"
)

// Project represents a loaded modrun project: its configuration and the
// registry of modules it can run.
type Project struct {
	Root     string
	Config   *config.Config
	Registry *registry.Registry
	// Source describes where modules were loaded from (manifest or directory path).
	Source   string
	Warnings []string
}

// Options override project discovery. Zero values mean "use the config".
type Options struct {
	ConfigPath string
	ModulesDir string
	Manifest   string
	// Dir is the directory to search from; the working directory when empty.
	Dir string
	// Getenv reads environment overrides; os.Getenv when nil.
	Getenv func(string) string
}

// Load resolves the configuration and builds the module registry. Without a
// config file a project still loads when --modules-dir or --manifest names
// the modules; relative paths then resolve against the working directory.
func Load(opts Options) (*Project, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	start := opts.Dir
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Environmentf("working directory: %v", err)
		}
		start = cwd
	}

	p := &Project{}
	configPath := opts.ConfigPath
	if configPath == "" {
		root, err := FindRootFrom(start)
		switch {
		case err == nil:
			configPath = filepath.Join(root, ConfigDirName, ConfigFileName)
		case stderrors.Is(err, ErrNoProjectRoot) && (opts.ModulesDir != "" || opts.Manifest != ""):
			p.Root, _ = filepath.Abs(start)
			p.Config = config.Default()
		case stderrors.Is(err, ErrNoProjectRoot):
			return nil, errors.Config(err.Error())
		default:
			return nil, errors.Environmentf("find project root: %v", err)
		}
	}

	if p.Config == nil {
		root, err := rootForConfig(configPath)
		if err != nil {
			return nil, errors.Environmentf("resolve config path: %v", err)
		}
		cfg, warnings, err := config.LoadAndValidate(configPath)
		if err != nil {
			return nil, errors.Configf("failed to load configuration: %v", err)
		}
		p.Root = root
		p.Config = cfg
		p.Warnings = warnings
	}

	p.Warnings = append(p.Warnings, config.ApplyEnv(p.Config, getenv)...)

	// Flags win over the config; a --modules-dir flag also beats a configured manifest.
	switch {
	case opts.Manifest != "":
		p.Config.Modules.Manifest = opts.Manifest
	case opts.ModulesDir != "":
		p.Config.Modules.Directory = opts.ModulesDir
		p.Config.Modules.Manifest = ""
	}

	reg, source, err := p.loadRegistry()
	if err != nil {
		return nil, err
	}
	p.Registry = reg
	p.Source = source
	return p, nil
}

func (p *Project) loadRegistry() (*registry.Registry, string, error) {
	var descriptors []task.Descriptor
	var source string
	var err error

	if m := p.Config.Modules.Manifest; m != "" {
		source = p.Resolve(m)
		descriptors, err = registry.LoadManifest(source)
	} else {
		source = p.Resolve(p.Config.Modules.Directory)
		descriptors, err = registry.Discover(source)
	}
	if err != nil {
		if errors.GetExitCode(err) == errors.ExitConfigError {
			return nil, "", err
		}
		return nil, "", errors.Configf("load modules from %s: %v", source, err)
	}

	reg, err := registry.FromDescriptors(descriptors)
	if err != nil {
		return nil, "", err
	}
	return reg, source, nil
}

// Resolve makes a config-relative path absolute against the project root.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}

// StatusFilePath returns the absolute path of the persisted run report.
func (p *Project) StatusFilePath() string {
	return p.Resolve(p.Config.StatusFile)
}

// LockFilePath returns the configured lock marker path, or "" for the default.
func (p *Project) LockFilePath() string {
	return p.Resolve(p.Config.LockFile)
}

// String describes the project for diagnostics.
func (p *Project) String() string {
	return fmt.Sprintf("project at %s (%d modules from %s)", p.Root, p.Registry.Len(), p.Source)
}
