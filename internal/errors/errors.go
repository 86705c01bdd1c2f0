// Package errors provides structured error types and exit codes for modrun.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned by the CLI. Mirrored publicly in pkg/modrun.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error (a module failed, etc.)
	ExitConfigError      = 2 // Configuration or validation error
	ExitEnvironmentError = 3 // Environment error (unreadable lock file, etc.)
	ExitLockError        = 4 // Another run holds the lock
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindDuplicateID
	KindUnknownTask
	KindNotExecutable
	KindEnvironment
	KindAlreadyRunning
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "Config"
	case KindDuplicateID:
		return "DuplicateId"
	case KindUnknownTask:
		return "UnknownTask"
	case KindNotExecutable:
		return "NotExecutable"
	case KindEnvironment:
		return "Environment"
	case KindAlreadyRunning:
		return "AlreadyRunning"
	default:
		return "Runtime"
	}
}

// ModrunError is the base error type for modrun.
type ModrunError struct {
	Kind    ErrorKind
	Message string
	Task    string // Module id if applicable
	PID     int    // Lock holder for KindAlreadyRunning
	Cause   error  // Underlying error
}

func (e *ModrunError) Error() string {
	if e.Task != "" {
		return fmt.Sprintf("[%s] %s", e.Task, e.Message)
	}
	return e.Message
}

func (e *ModrunError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *ModrunError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindDuplicateID, KindUnknownTask, KindNotExecutable:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	case KindAlreadyRunning:
		return ExitLockError
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *ModrunError {
	return &ModrunError{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Config creates a new configuration error.
func Config(message string) *ModrunError {
	return &ModrunError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *ModrunError {
	return Config(fmt.Sprintf(format, args...))
}

// Environment creates a new environment error.
func Environment(message string) *ModrunError {
	return &ModrunError{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *ModrunError {
	return Environment(fmt.Sprintf(format, args...))
}

// DuplicateID reports a second registration of the same module id.
func DuplicateID(id string) *ModrunError {
	return &ModrunError{
		Kind:    KindDuplicateID,
		Task:    id,
		Message: "module already registered",
	}
}

// DuplicateModuleFile reports two module files that map to the same id.
func DuplicateModuleFile(id, first, second string) *ModrunError {
	return &ModrunError{
		Kind:    KindDuplicateID,
		Task:    id,
		Message: fmt.Sprintf("module files %s and %s share this id", first, second),
	}
}

// UnknownTask reports a requested module id that is not in the registry.
func UnknownTask(id string) *ModrunError {
	return &ModrunError{
		Kind:    KindUnknownTask,
		Task:    id,
		Message: "unknown module",
	}
}

// NotExecutable reports a module whose location cannot be invoked.
func NotExecutable(id, location string, cause error) *ModrunError {
	msg := fmt.Sprintf("not executable: %s", location)
	if cause != nil {
		msg = fmt.Sprintf("not executable: %s: %v", location, cause)
	}
	return &ModrunError{
		Kind:    KindNotExecutable,
		Task:    id,
		Message: msg,
		Cause:   cause,
	}
}

// AlreadyRunning reports that another live process holds the run lock.
// A pid of 0 means the holder could not be identified yet.
func AlreadyRunning(pid int) *ModrunError {
	msg := "another run is in progress"
	if pid > 0 {
		msg = fmt.Sprintf("another run is in progress (pid %d)", pid)
	}
	return &ModrunError{
		Kind:    KindAlreadyRunning,
		PID:     pid,
		Message: msg,
	}
}

// Is reports whether err (or anything it wraps or joins) is a ModrunError of the given kind.
func Is(err error, kind ErrorKind) bool {
	var me *ModrunError
	if !errors.As(err, &me) {
		return false
	}
	if me.Kind == kind {
		return true
	}
	// errors.As stops at the first match; joined errors may carry more.
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if Is(e, kind) {
				return true
			}
		}
	}
	return false
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var me *ModrunError
	if errors.As(err, &me) {
		return me.ExitCode()
	}
	return ExitRuntimeError
}
