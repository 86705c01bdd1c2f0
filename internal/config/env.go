package config

import (
	"fmt"
	"strconv"
)

// Environment variables that override config.json.
const (
	EnvParallel = "MODRUN_PARALLEL"
	EnvTimeout  = "MODRUN_TIMEOUT"
)

// ApplyEnv overrides run settings from the environment. Invalid values are
// ignored with a warning so a stray variable never blocks a run.
func ApplyEnv(cfg *Config, getenv func(string) string) []string {
	var warnings []string
	if cfg.Run == nil {
		cfg.Run = &RunConfig{}
	}

	if v := getenv(EnvParallel); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Sprintf("invalid %s value %q (not a number), using default", EnvParallel, v))
		case n < MinConcurrency || n > MaxConcurrency:
			warnings = append(warnings, fmt.Sprintf("%s=%d out of range [%d-%d], using default", EnvParallel, n, MinConcurrency, MaxConcurrency))
		default:
			cfg.Run.Concurrency = n
		}
	}

	if v := getenv(EnvTimeout); v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil || s <= 0 {
			warnings = append(warnings, fmt.Sprintf("invalid %s value %q (want seconds > 0), using default", EnvTimeout, v))
		} else {
			cfg.Run.Timeout = s
		}
	}

	return warnings
}
