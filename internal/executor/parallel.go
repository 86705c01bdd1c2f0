package executor

import (
	"context"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/ctxlog"
	"github.com/AndreyAkinshin/modrun/internal/task"
)

// Parallel runs modules concurrently, at most MaxConcurrency at a time.
// A failing module never stops its siblings or the queue.
type Parallel struct {
	Invoker        Invoker
	Timeout        time.Duration // per module; zero means no limit
	MaxConcurrency int           // <= 0 means DefaultConcurrency()
	Hooks          Hooks
}

// Run executes tasks and returns their results in completion order.
func (p *Parallel) Run(ctx context.Context, tasks []task.Descriptor) []task.Result {
	log := ctxlog.FromContext(ctx)
	limit := p.MaxConcurrency
	if limit <= 0 {
		limit = DefaultConcurrency()
	}

	results := make([]task.Result, 0, len(tasks))
	// Buffered so a finishing module never blocks on the collector.
	done := make(chan task.Result, len(tasks))
	inFlight := 0
	next := 0

	for len(results) < len(tasks) {
		for next < len(tasks) && inFlight < limit && ctx.Err() == nil {
			d := tasks[next]
			next++
			inFlight++
			log.Debug("module admitted", "id", d.ID, "in_flight", inFlight, "limit", limit)
			p.Hooks.start(d)
			go func() {
				done <- invoke(ctx, p.Invoker, d, p.Timeout)
			}()
		}

		if inFlight == 0 {
			// Canceled with modules still queued: report them without starting them.
			for ; next < len(tasks); next++ {
				r := task.Skipped(tasks[next].ID, task.MsgSkippedCanceled)
				results = append(results, r)
				p.Hooks.result(r)
			}
			break
		}

		r := <-done
		inFlight--
		log.Debug("module finished", "id", r.ID, "status", r.Status, "duration", r.Duration, "in_flight", inFlight)
		results = append(results, r)
		p.Hooks.result(r)
	}

	return results
}
