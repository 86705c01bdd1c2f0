package config

import (
	"fmt"
	"runtime"
)

// Execution modes.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// Concurrency limits shared by config, environment and flags.
const (
	MinConcurrency = 1
	MaxConcurrency = 256
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration for errors and returns warnings for non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if cfg.Run == nil {
		return nil, nil
	}

	if err := ValidateMode(cfg.Run.Mode); err != nil {
		return nil, err
	}
	if c := cfg.Run.Concurrency; c != 0 {
		if c < MinConcurrency || c > MaxConcurrency {
			return nil, &ValidationError{Field: "run.concurrency", Message: concurrencyRange(c)}
		}
		if c > runtime.NumCPU() {
			warnings = append(warnings, fmt.Sprintf("run.concurrency=%d exceeds the %d available CPUs", c, runtime.NumCPU()))
		}
	}
	if cfg.Run.Timeout < 0 {
		return warnings, &ValidationError{Field: "run.timeout", Message: "must be positive"}
	}
	if cfg.Run.ContinueOnFailure && cfg.Run.Mode == ModeParallel {
		warnings = append(warnings, "run.continue_on_failure has no effect in parallel mode")
	}

	return warnings, nil
}

// ValidateMode checks an execution mode name.
func ValidateMode(mode string) error {
	if mode != ModeSequential && mode != ModeParallel {
		return &ValidationError{
			Field:   "run.mode",
			Message: fmt.Sprintf("must be %q or %q, got %q", ModeSequential, ModeParallel, mode),
		}
	}
	return nil
}

// ValidateConcurrency checks an explicit concurrency limit.
func ValidateConcurrency(n int) error {
	if n < MinConcurrency || n > MaxConcurrency {
		return &ValidationError{
			Field:   "concurrency",
			Message: concurrencyRange(n),
		}
	}
	return nil
}

func concurrencyRange(n int) string {
	return fmt.Sprintf("must be in range [%d-%d], got %d", MinConcurrency, MaxConcurrency, n)
}
