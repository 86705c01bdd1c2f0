// Package runner coordinates a single orchestration run: lock, validate,
// dispatch, aggregate and report.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/config"
	"github.com/AndreyAkinshin/modrun/internal/ctxlog"
	"github.com/AndreyAkinshin/modrun/internal/errors"
	"github.com/AndreyAkinshin/modrun/internal/executor"
	"github.com/AndreyAkinshin/modrun/internal/lockguard"
	"github.com/AndreyAkinshin/modrun/internal/output"
	"github.com/AndreyAkinshin/modrun/internal/registry"
	"github.com/AndreyAkinshin/modrun/internal/report"
	"github.com/AndreyAkinshin/modrun/internal/task"
	"github.com/AndreyAkinshin/modrun/internal/validator"
)

// Request describes one run.
type Request struct {
	// IDs selects modules; empty means every enabled module.
	IDs  []string
	Mode string // config.ModeSequential or config.ModeParallel
	// MaxConcurrency applies to parallel mode; <= 0 means host CPU count.
	MaxConcurrency    int
	Timeout           time.Duration // per module; zero means no limit
	ContinueOnFailure bool          // sequential mode only
	DryRun            bool
}

// Coordinator drives one run at a time through its states. It is not safe
// for concurrent use.
type Coordinator struct {
	registry *registry.Registry
	invoker  executor.Invoker
	lock     *lockguard.Guard

	// Store persists each report; nil disables persistence.
	Store *report.Store
	// Out receives per-module lines and the summary.
	Out *output.Writer

	history []State
}

// New creates a Coordinator that runs modules from reg through inv, guarded
// by lock.
func New(reg *registry.Registry, inv executor.Invoker, lock *lockguard.Guard) *Coordinator {
	return &Coordinator{
		registry: reg,
		invoker:  inv,
		lock:     lock,
		Out:      output.New(),
		history:  []State{StateIdle},
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	return c.history[len(c.history)-1]
}

// History returns every state visited, starting with StateIdle.
func (c *Coordinator) History() []State {
	return append([]State(nil), c.history...)
}

func (c *Coordinator) transition(ctx context.Context, to State) {
	from := c.State()
	if !from.canTransition(to) {
		panic(fmt.Sprintf("runner: invalid transition %s -> %s", from, to))
	}
	c.history = append(c.history, to)
	ctxlog.FromContext(ctx).Debug("run state", "from", from, "to", to)
}

// Run executes req. Module failures are reported in the returned report,
// never as an error; the error is non-nil only when the run was rejected
// (lock held, validation failed). The lock is released on every path.
func (c *Coordinator) Run(ctx context.Context, req Request) (report.Report, error) {
	switch s := c.State(); {
	case s.Terminal():
		return report.Report{}, errors.New("run already performed by this coordinator")
	case s != StateIdle:
		return report.Report{}, errors.New("run already in progress on this coordinator")
	}
	log := ctxlog.FromContext(ctx)
	startedAt := time.Now()

	handle, err := c.lock.Acquire()
	if err != nil {
		c.transition(ctx, StateAborted)
		r := report.Aborted(err, startedAt, time.Now())
		r.Mode, r.DryRun = req.Mode, req.DryRun
		return r, err
	}
	defer func() {
		if err := handle.Release(); err != nil {
			log.Warn("lock release failed", "path", c.lock.Path(), "error", err)
		}
	}()

	c.transition(ctx, StateValidating)
	tasks, err := c.validate(req)
	if err != nil {
		c.transition(ctx, StateAborted)
		r := report.Aborted(err, startedAt, time.Now())
		r.Mode, r.DryRun = req.Mode, req.DryRun
		c.persist(ctx, r)
		return r, err
	}

	var results []task.Result
	if req.DryRun {
		c.transition(ctx, StateReporting)
		results = c.dryRun(req, tasks)
	} else {
		c.transition(ctx, StateDispatching)
		exec := c.executorFor(ctx, req)
		c.transition(ctx, StateExecuting)
		results = exec.Run(ctx, tasks)
		c.transition(ctx, StateReporting)
	}

	r := report.Aggregate(results, startedAt, time.Now())
	r.Mode, r.DryRun = req.Mode, req.DryRun
	if ctx.Err() != nil {
		r.Error = "canceled"
	}
	c.persist(ctx, r)
	if !req.DryRun {
		PrintSummary(c.Out, r)
	}

	c.transition(ctx, StateDone)
	log.Debug("run finished", "succeeded", r.Succeeded, "failed", r.Failed, "errored", r.Errored)
	return r, nil
}

func (c *Coordinator) validate(req Request) ([]task.Descriptor, error) {
	if err := config.ValidateMode(req.Mode); err != nil {
		return nil, errors.Config(err.Error())
	}
	if req.Timeout < 0 {
		return nil, errors.Configf("timeout must be positive, got %s", req.Timeout)
	}
	return validator.Validate(req.IDs, c.registry)
}

func (c *Coordinator) executorFor(ctx context.Context, req Request) executor.Executor {
	log := ctxlog.FromContext(ctx)
	hooks := executor.Hooks{
		OnStart: func(d task.Descriptor) {
			log.Debug("module started", "id", d.ID, "location", d.Location)
		},
		OnResult: func(r task.Result) {
			log.Debug("module finished", "id", r.ID, "status", r.Status, "duration", r.Duration)
			c.Out.TaskResult(r.ID, r.Status.String(), r.Duration, r.Message)
		},
	}

	if req.Mode == config.ModeParallel {
		return &executor.Parallel{
			Invoker:        c.invoker,
			Timeout:        req.Timeout,
			MaxConcurrency: req.MaxConcurrency,
			Hooks:          hooks,
		}
	}
	return &executor.Sequential{
		Invoker:           c.invoker,
		Timeout:           req.Timeout,
		ContinueOnFailure: req.ContinueOnFailure,
		Hooks:             hooks,
	}
}

// dryRun prints the resolved plan and returns a synthetic success per module.
func (c *Coordinator) dryRun(req Request, tasks []task.Descriptor) []task.Result {
	c.Out.DryRunStart()
	c.Out.SummaryItem("Mode", output.Label(req.Mode))
	if req.Mode == config.ModeParallel {
		limit := req.MaxConcurrency
		if limit <= 0 {
			limit = executor.DefaultConcurrency()
		}
		c.Out.SummaryItem("Concurrency", fmt.Sprintf("%d", limit))
	}
	if req.Timeout > 0 {
		c.Out.SummaryItem("Timeout", output.FormatDuration(req.Timeout))
	}
	c.Out.Println("")

	results := make([]task.Result, 0, len(tasks))
	for _, d := range tasks {
		c.Out.ModuleInfo(d.ID, d.Location)
		results = append(results, task.Result{ID: d.ID, Status: task.StatusSuccess, Message: task.MsgDryRun})
	}
	c.Out.DryRunEnd()
	return results
}

func (c *Coordinator) persist(ctx context.Context, r report.Report) {
	if c.Store == nil {
		return
	}
	if err := c.Store.Save(r); err != nil {
		c.Out.Warning("could not write status file: %v", err)
		return
	}
	ctxlog.FromContext(ctx).Debug("status written", "path", c.Store.Path())
}

// PrintSummary writes the end-of-run summary for r.
func PrintSummary(w *output.Writer, r report.Report) {
	w.SummaryHeader("Run Summary")
	if r.Mode != "" {
		w.SummaryItem("Mode", output.Label(r.Mode))
	}
	w.SummaryItem("Modules", fmt.Sprintf("%d", r.Total()))
	w.SummaryPassed("Succeeded", fmt.Sprintf("%d", r.Succeeded))
	if r.Failed > 0 {
		w.SummaryFailed("Failed", fmt.Sprintf("%d", r.Failed))
	}
	if r.Errored > 0 {
		w.SummaryFailed("Errored", fmt.Sprintf("%d", r.Errored))
	}
	w.SummaryItem("Duration", output.FormatDuration(r.Duration()))

	switch {
	case r.OverallSuccess:
		w.FinalSuccess("All %d modules succeeded.", r.Total())
	case r.Total() == 0 && r.Error != "":
		w.FinalFailure("Run aborted: %s", r.Error)
	default:
		w.FinalFailure("%d of %d modules did not succeed.", r.Failed+r.Errored, r.Total())
	}
}
