// Package config provides configuration loading and validation for config.json.
package config

import "time"

// Config represents the complete .modrun/config.json configuration.
type Config struct {
	Schema     string         `json:"$schema,omitempty"`
	Modules    *ModulesConfig `json:"modules,omitempty"`
	Run        *RunConfig     `json:"run,omitempty"`
	LockFile   string         `json:"lock_file,omitempty"`
	StatusFile string         `json:"status_file,omitempty"`
}

// ModulesConfig tells modrun where modules come from. When Manifest is set it
// takes precedence over Directory.
type ModulesConfig struct {
	Directory string `json:"directory,omitempty"`
	Manifest  string `json:"manifest,omitempty"`
}

// RunConfig holds run defaults that command-line flags may override.
type RunConfig struct {
	Mode string `json:"mode,omitempty"`
	// Concurrency of 0 means the host CPU count.
	Concurrency int `json:"concurrency,omitempty"`
	// Timeout is the per-module wall-clock limit in seconds.
	Timeout           float64 `json:"timeout,omitempty"`
	ContinueOnFailure bool    `json:"continue_on_failure,omitempty"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (r *RunConfig) TimeoutDuration() time.Duration {
	return Seconds(r.Timeout)
}

// Seconds converts a (possibly fractional) number of seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
