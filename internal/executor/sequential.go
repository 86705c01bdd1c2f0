package executor

import (
	"context"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/ctxlog"
	"github.com/AndreyAkinshin/modrun/internal/task"
)

// Sequential runs modules one at a time in the given order.
type Sequential struct {
	Invoker Invoker
	Timeout time.Duration // per module; zero means no limit

	// ContinueOnFailure keeps going after a module fails. When false, the
	// first non-successful module stops the run and every remaining module
	// is reported as skipped.
	ContinueOnFailure bool

	Hooks Hooks
}

// Run executes tasks in order and returns their results in the same order.
func (s *Sequential) Run(ctx context.Context, tasks []task.Descriptor) []task.Result {
	log := ctxlog.FromContext(ctx)
	results := make([]task.Result, 0, len(tasks))
	skipReason := ""

	for _, d := range tasks {
		if skipReason == "" && ctx.Err() != nil {
			skipReason = task.MsgSkippedCanceled
		}
		if skipReason != "" {
			r := task.Skipped(d.ID, skipReason)
			results = append(results, r)
			s.Hooks.result(r)
			continue
		}

		log.Debug("module started", "id", d.ID, "mode", "sequential")
		s.Hooks.start(d)
		r := invoke(ctx, s.Invoker, d, s.Timeout)
		log.Debug("module finished", "id", d.ID, "status", r.Status, "duration", r.Duration)
		results = append(results, r)
		s.Hooks.result(r)

		switch {
		case ctx.Err() != nil:
			skipReason = task.MsgSkippedCanceled
		case !r.Succeeded() && !s.ContinueOnFailure:
			skipReason = task.MsgSkippedPriorFailure
		}
	}

	return results
}
