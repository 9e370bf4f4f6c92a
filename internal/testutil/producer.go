package testutil

import (
	"sync"

	"github.com/roach88/stripmark/internal/strip"
)

// CallRecorder builds deferred values that record each invocation.
//
// Tests use it to check how often, and in which order, producers run.
//
// Thread-safety: CallRecorder is safe for concurrent use via internal mutex.
type CallRecorder struct {
	mu    sync.Mutex
	calls []string
}

// NewCallRecorder creates an empty recorder.
func NewCallRecorder() *CallRecorder {
	return &CallRecorder{}
}

// Producer returns a producer that records name and yields value.
func (r *CallRecorder) Producer(name, value string) strip.Producer {
	return func() (string, error) {
		r.record(name)
		return value, nil
	}
}

// Failing returns a producer that records name and fails with err.
func (r *CallRecorder) Failing(name string, err error) strip.Producer {
	return func() (string, error) {
		r.record(name)
		return "", err
	}
}

func (r *CallRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

// Calls returns the recorded names in invocation order.
func (r *CallRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Count returns how many times name was invoked.
func (r *CallRecorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == name {
			n++
		}
	}
	return n
}

// Reset forgets every recorded call.
func (r *CallRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
