// Package report aggregates per-module results into a run report and
// persists it for external monitoring tools.
package report

import (
	"time"

	"github.com/AndreyAkinshin/modrun/internal/task"
)

// Record is the serialized form of one task.Result.
type Record struct {
	ID         string      `json:"id" yaml:"id"`
	Status     task.Status `json:"status" yaml:"status"`
	DurationMs int64       `json:"duration_ms" yaml:"duration_ms"`
	Message    string      `json:"message,omitempty" yaml:"message,omitempty"`
}

// Report is the aggregate outcome of one run.
type Report struct {
	Mode    string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	DryRun  bool     `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Results []Record `json:"results" yaml:"results"`

	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	// Errored counts timeouts and missing modules.
	Errored        int  `json:"errored" yaml:"errored"`
	OverallSuccess bool `json:"overall_success" yaml:"overall_success"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Error holds the reason a run was aborted before execution.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Aggregate builds a report from results. It does not modify or retain
// results, so calling it repeatedly on the same slice yields equal reports.
func Aggregate(results []task.Result, startedAt, finishedAt time.Time) Report {
	r := Report{
		Results:    make([]Record, 0, len(results)),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}

	for _, res := range results {
		r.Results = append(r.Results, Record{
			ID:         res.ID,
			Status:     res.Status,
			DurationMs: res.Duration.Milliseconds(),
			Message:    res.Message,
		})

		switch res.Status {
		case task.StatusSuccess:
			r.Succeeded++
		case task.StatusFailed:
			r.Failed++
		default:
			r.Errored++
		}
	}

	r.OverallSuccess = r.Failed == 0 && r.Errored == 0
	return r
}

// Aborted builds the report of a run rejected before any module started.
func Aborted(cause error, startedAt, finishedAt time.Time) Report {
	r := Aggregate(nil, startedAt, finishedAt)
	r.OverallSuccess = false
	if cause != nil {
		r.Error = cause.Error()
	}
	return r
}

// Total returns the number of module results in the report.
func (r Report) Total() int {
	return len(r.Results)
}

// Duration returns the wall-clock length of the run.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
