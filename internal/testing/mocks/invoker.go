// Package mocks provides shared test doubles for modrun packages.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/AndreyAkinshin/modrun/internal/task"
)

// Behavior scripts how a mock module behaves when invoked.
type Behavior struct {
	Delay time.Duration   // sleep before returning
	Err   error           // returned after Delay (and Gate)
	Gate  <-chan struct{} // when set, block until closed
}

// Invoker implements executor.Invoker for testing. Modules without a
// scripted Behavior succeed immediately.
// Use NewInvoker() and On() to script behaviors.
type Invoker struct {
	mu          sync.Mutex
	behaviors   map[string]Behavior
	started     []string
	finished    []string
	inFlight    int
	maxInFlight int

	// Events, when non-nil, receives "start:<id>" and "finish:<id>" markers.
	// It must be buffered enough for the test; sends never block the mock.
	Events chan string
}

// NewInvoker creates a new mock invoker.
func NewInvoker() *Invoker {
	return &Invoker{behaviors: make(map[string]Behavior)}
}

// On scripts the behavior of module id.
func (m *Invoker) On(id string, b Behavior) *Invoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.behaviors[id] = b
	return m
}

// WithEvents enables the Events channel with the given buffer size.
func (m *Invoker) WithEvents(size int) *Invoker {
	m.Events = make(chan string, size)
	return m
}

// Invoke records the call and plays back the scripted behavior.
func (m *Invoker) Invoke(ctx context.Context, d task.Descriptor) error {
	b := m.enter(d.ID)
	defer m.leave(d.ID)

	if b.Gate != nil {
		select {
		case <-b.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if b.Delay > 0 {
		timer := time.NewTimer(b.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return b.Err
}

func (m *Invoker) enter(id string) Behavior {
	m.mu.Lock()
	m.started = append(m.started, id)
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	b := m.behaviors[id]
	m.mu.Unlock()
	m.emit("start:" + id)
	return b
}

func (m *Invoker) leave(id string) {
	m.mu.Lock()
	m.finished = append(m.finished, id)
	m.inFlight--
	m.mu.Unlock()
	m.emit("finish:" + id)
}

func (m *Invoker) emit(event string) {
	if m.Events == nil {
		return
	}
	select {
	case m.Events <- event:
	default:
	}
}

// Started returns the ids in invocation order.
func (m *Invoker) Started() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.started...)
}

// Finished returns the ids in the order they returned.
func (m *Invoker) Finished() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.finished...)
}

// CallCount returns how many times Invoke was called.
func (m *Invoker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.started)
}

// MaxInFlight returns the highest number of concurrent Invoke calls observed.
func (m *Invoker) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}
