package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"runtime"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/task"
)

const (
	// MinConcurrency keeps at least one slot open even if runtime.NumCPU()
	// reports 0 in restricted containers.
	MinConcurrency = 1

	// MaxConcurrency caps the number of simultaneously running modules.
	MaxConcurrency = 256
)

// DefaultConcurrency returns the host logical CPU count, clamped to
// [MinConcurrency, MaxConcurrency].
func DefaultConcurrency() int {
	return min(max(MinConcurrency, runtime.NumCPU()), MaxConcurrency)
}

// Invoker runs one module to completion. It must return promptly once ctx
// is done, terminating whatever it started.
type Invoker interface {
	Invoke(ctx context.Context, d task.Descriptor) error
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, d task.Descriptor) error

// Invoke calls f(ctx, d).
func (f InvokerFunc) Invoke(ctx context.Context, d task.Descriptor) error {
	return f(ctx, d)
}

// Executor runs a validated set of modules. Every task yields exactly one
// result.
type Executor interface {
	Run(ctx context.Context, tasks []task.Descriptor) []task.Result
}

var (
	_ Executor = (*Sequential)(nil)
	_ Executor = (*Parallel)(nil)
)

// Hooks observe executor progress. Both callbacks run on the goroutine
// that called Run, never concurrently with each other.
type Hooks struct {
	OnStart  func(d task.Descriptor)
	OnResult func(r task.Result)
}

func (h Hooks) start(d task.Descriptor) {
	if h.OnStart != nil {
		h.OnStart(d)
	}
}

func (h Hooks) result(r task.Result) {
	if h.OnResult != nil {
		h.OnResult(r)
	}
}

// invoke runs one module under its own deadline and classifies the outcome.
func invoke(ctx context.Context, inv Invoker, d task.Descriptor, timeout time.Duration) task.Result {
	tctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		tctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	start := time.Now()
	err := inv.Invoke(tctx, d)
	r := task.Result{ID: d.ID, Duration: time.Since(start)}

	switch {
	case err == nil:
		r.Status = task.StatusSuccess
	case ctx.Err() != nil:
		// The whole run was canceled, not just this module.
		r.Status = task.StatusFailed
		r.Message = "canceled"
	case errors.Is(tctx.Err(), context.DeadlineExceeded):
		r.Status = task.StatusTimedOut
		r.Message = fmt.Sprintf("timed out after %s", timeout)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		r.Status = task.StatusNotFound
		r.Message = fmt.Sprintf("%s: %v", task.MsgDescriptorMissing, err)
	default:
		r.Status = task.StatusFailed
		r.Message = err.Error()
	}
	return r
}
