// Package executor runs validated modules, either one at a time
// (Sequential) or concurrently under a fixed cap (Parallel).
//
// Both executors return exactly one task.Result per input descriptor.
// Each module gets its own wall-clock timeout; a timed-out module is killed
// and reported as task.StatusTimedOut. Failures never propagate as Go
// errors: they are recorded in the result and the run carries on (or, for
// Sequential without ContinueOnFailure, the rest is reported as skipped).
//
// # Admission
//
// Parallel admits work event-by-event: it fills every free slot, then
// blocks until any in-flight module finishes, records that result, and
// immediately refills the slot. It never waits for a whole batch. Slot
// accounting and the result slice are owned by the Run goroutine; module
// goroutines only send their result on a channel.
//
// # Cancellation
//
// Canceling the context passed to Run kills every in-flight module. Modules
// that never started are reported as skipped with task.MsgSkippedCanceled.
package executor
