// Package modrun provides public constants for external tools integrating
// with the modrun CLI.
package modrun

// Exit codes returned by the modrun CLI.
// These constants allow wrapper scripts and monitoring tools to check exit
// codes symbolically rather than using magic numbers.
const (
	// ExitSuccess indicates every requested module succeeded.
	ExitSuccess = 0

	// ExitFailure indicates at least one module failed or timed out.
	ExitFailure = 1

	// ExitConfigError indicates a configuration or validation error
	// (unknown module, module not executable, invalid config).
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (lock file unreadable, etc.).
	ExitEnvError = 3

	// ExitAlreadyRunning indicates another live run holds the lock.
	ExitAlreadyRunning = 4
)
