package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/task"
	"github.com/AndreyAkinshin/modrun/internal/testing/mocks"
)

func TestSequential_AllSucceedInOrder(t *testing.T) {
	t.Parallel()
	inv := mocks.NewInvoker()
	s := &Sequential{Invoker: inv, Timeout: time.Second}

	results := s.Run(context.Background(), descriptors("cpu", "memory", "io"))

	if got := strings.Join(resultIDs(results), ","); got != "cpu,memory,io" {
		t.Errorf("result order = %s, want cpu,memory,io", got)
	}
	if got := strings.Join(inv.Started(), ","); got != "cpu,memory,io" {
		t.Errorf("invocation order = %s, want cpu,memory,io", got)
	}
	for _, r := range results {
		if !r.Succeeded() {
			t.Errorf("%s: Status = %v, want success", r.ID, r.Status)
		}
	}
}

func TestSequential_ShortCircuit(t *testing.T) {
	t.Parallel()
	inv := mocks.NewInvoker().On("b", mocks.Behavior{Err: errors.New("exit status 1")})
	s := &Sequential{Invoker: inv, Timeout: time.Second}

	results := s.Run(context.Background(), descriptors("a", "b", "c"))

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Status != task.StatusSuccess {
		t.Errorf("a: Status = %v, want success", results[0].Status)
	}
	if results[1].Status != task.StatusFailed {
		t.Errorf("b: Status = %v, want failed", results[1].Status)
	}
	c := results[2]
	if c.ID != "c" || c.Status != task.StatusFailed || c.Message != task.MsgSkippedPriorFailure {
		t.Errorf("c = %+v, want skip marker", c)
	}
	for _, id := range inv.Started() {
		if id == "c" {
			t.Error("c was invoked after a prior failure")
		}
	}
}

func TestSequential_ContinueOnFailure(t *testing.T) {
	t.Parallel()
	inv := mocks.NewInvoker().
		On("a", mocks.Behavior{Err: errors.New("exit status 2")}).
		On("b", mocks.Behavior{Delay: time.Hour})
	s := &Sequential{Invoker: inv, Timeout: 20 * time.Millisecond, ContinueOnFailure: true}

	results := s.Run(context.Background(), descriptors("a", "b", "c"))

	if inv.CallCount() != 3 {
		t.Errorf("CallCount() = %d, want 3", inv.CallCount())
	}
	want := []task.Status{task.StatusFailed, task.StatusTimedOut, task.StatusSuccess}
	for i, r := range results {
		if r.Status != want[i] {
			t.Errorf("%s: Status = %v, want %v", r.ID, r.Status, want[i])
		}
	}
}

func TestSequential_TimeoutStopsRun(t *testing.T) {
	t.Parallel()
	inv := mocks.NewInvoker().On("a", mocks.Behavior{Delay: time.Hour})
	s := &Sequential{Invoker: inv, Timeout: 20 * time.Millisecond}

	results := s.Run(context.Background(), descriptors("a", "b"))

	if results[0].Status != task.StatusTimedOut {
		t.Errorf("a: Status = %v, want timed_out", results[0].Status)
	}
	if results[1].Message != task.MsgSkippedPriorFailure {
		t.Errorf("b: Message = %q, want skip marker", results[1].Message)
	}
}

func TestSequential_Canceled(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	inv := mocks.NewInvoker().WithEvents(8).On("a", mocks.Behavior{Gate: gate})
	s := &Sequential{Invoker: inv, Timeout: time.Minute, ContinueOnFailure: true}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-inv.Events // start:a
		cancel()
	}()

	results := s.Run(ctx, descriptors("a", "b", "c"))

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Message != "canceled" {
		t.Errorf("a: Message = %q, want canceled", results[0].Message)
	}
	for _, r := range results[1:] {
		if r.Message != task.MsgSkippedCanceled {
			t.Errorf("%s: Message = %q, want %q", r.ID, r.Message, task.MsgSkippedCanceled)
		}
	}
	if inv.CallCount() != 1 {
		t.Errorf("CallCount() = %d, want 1", inv.CallCount())
	}
}

func TestSequential_Hooks(t *testing.T) {
	t.Parallel()
	var events []string
	s := &Sequential{
		Invoker: mocks.NewInvoker().On("a", mocks.Behavior{Err: errors.New("x")}),
		Hooks: Hooks{
			OnStart:  func(d task.Descriptor) { events = append(events, "start:"+d.ID) },
			OnResult: func(r task.Result) { events = append(events, "result:"+r.ID) },
		},
	}

	s.Run(context.Background(), descriptors("a", "b"))

	// b is skipped, so it is reported but never started.
	if got := strings.Join(events, ","); got != "start:a,result:a,result:b" {
		t.Errorf("hook events = %s", got)
	}
}
