package config

// Default configuration values.
const (
	DefaultModulesDirectory = "modules"
	DefaultMode             = ModeSequential
	DefaultTimeoutSeconds   = 300
	DefaultStatusFile       = ".modrun/status.json"
)

// Default returns a configuration with every default applied, used when no
// config.json exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
// LockFile stays empty; the lock guard picks its own default.
func applyDefaults(cfg *Config) {
	applyModulesDefaults(cfg)
	applyRunDefaults(cfg)
	if cfg.StatusFile == "" {
		cfg.StatusFile = DefaultStatusFile
	}
}

func applyModulesDefaults(cfg *Config) {
	if cfg.Modules == nil {
		cfg.Modules = &ModulesConfig{}
	}
	if cfg.Modules.Directory == "" {
		cfg.Modules.Directory = DefaultModulesDirectory
	}
}

func applyRunDefaults(cfg *Config) {
	if cfg.Run == nil {
		cfg.Run = &RunConfig{}
	}
	if cfg.Run.Mode == "" {
		cfg.Run.Mode = DefaultMode
	}
	if cfg.Run.Timeout == 0 {
		cfg.Run.Timeout = DefaultTimeoutSeconds
	}
}
