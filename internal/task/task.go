// Package task defines the value types shared by the registry, the executors
// and the report: module descriptors and per-module results.
package task

import (
	"fmt"
	"time"
)

// Messages attached to results of modules that were never started.
const (
	MsgSkippedPriorFailure = "skipped: prior failure"
	MsgSkippedCanceled     = "skipped: canceled"
	MsgDescriptorMissing   = "descriptor missing"
	MsgDryRun              = "dry run"
)

// Descriptor identifies one module and how to invoke it.
// Descriptors are immutable once registered.
type Descriptor struct {
	ID          string `yaml:"id" json:"id"`
	Location    string `yaml:"path" json:"path"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Enabled     bool   `yaml:"enabled" json:"enabled"`
}

// Status is the outcome of one module invocation.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusTimedOut
	StatusNotFound
)

var statusNames = map[Status]string{
	StatusSuccess:  "success",
	StatusFailed:   "failed",
	StatusTimedOut: "timed_out",
	StatusNotFound: "not_found",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// MarshalText implements encoding.TextMarshaler (used by both JSON and YAML encoders).
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Result tracks the outcome of a single module invocation.
type Result struct {
	ID       string
	Status   Status
	Duration time.Duration
	Message  string
}

// Succeeded reports whether the module finished successfully.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Skipped builds the result for a module that was never started.
func Skipped(id, reason string) Result {
	return Result{ID: id, Status: StatusFailed, Message: reason}
}
