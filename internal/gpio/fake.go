package gpio

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeController is a test double that records pin operations.
// Safe for concurrent use so tests can fire edges from another goroutine.
type FakeController struct {
	mu sync.Mutex

	// Calls records each operation in order, e.g. "output:23", "input:24",
	// "wait:24", "release".
	Calls []string

	// Outputs maps requested output offsets to their driven value.
	Outputs map[int]int

	// Inputs holds requested input offsets.
	Inputs map[int]bool

	// Released lists offsets returned by Release, in release order.
	Released []int

	// OutputError, if set, is returned by ConfigureOutput.
	OutputError error

	// InputError, if set, is returned by ConfigureInput.
	InputError error

	// WaitError, if set, is returned by WaitForRisingEdge.
	WaitError error

	// ReleaseError, if set, is returned by Release.
	ReleaseError error

	// AutoEdge makes WaitForRisingEdge return as if an edge arrived.
	AutoEdge bool

	order    []int
	edges    chan struct{}
	waiting  chan struct{}
	waitOnce sync.Once
}

// NewFakeController creates a FakeController with no lines requested.
func NewFakeController() *FakeController {
	return &FakeController{
		Outputs: make(map[int]int),
		Inputs:  make(map[int]bool),
		edges:   make(chan struct{}, 1),
		waiting: make(chan struct{}),
	}
}

// ConfigureOutput records an output request.
func (f *FakeController) ConfigureOutput(offset, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, fmt.Sprintf("output:%d", offset))
	if f.OutputError != nil {
		return f.OutputError
	}
	f.Outputs[offset] = value
	f.order = append(f.order, offset)
	return nil
}

// ConfigureInput records an input request.
func (f *FakeController) ConfigureInput(offset int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, fmt.Sprintf("input:%d", offset))
	if f.InputError != nil {
		return f.InputError
	}
	f.Inputs[offset] = true
	f.order = append(f.order, offset)
	return nil
}

// WaitForRisingEdge returns on AutoEdge, a call to Edge, or ctx cancellation.
func (f *FakeController) WaitForRisingEdge(ctx context.Context, offset int) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, fmt.Sprintf("wait:%d", offset))
	waitErr, auto, configured := f.WaitError, f.AutoEdge, f.Inputs[offset]
	f.mu.Unlock()

	if waitErr != nil {
		return waitErr
	}
	if !configured {
		return fmt.Errorf("wait on pin %d: %w", offset, ErrNotConfigured)
	}
	if auto {
		return nil
	}

	f.waitOnce.Do(func() { close(f.waiting) })
	select {
	case <-f.edges:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Waiting is closed once a blocking WaitForRisingEdge has started.
func (f *FakeController) Waiting() <-chan struct{} {
	return f.waiting
}

// Edge simulates a rising edge on the trigger line.
func (f *FakeController) Edge() {
	select {
	case f.edges <- struct{}{}:
	default:
	}
}

// Release records the release of every requested line, newest first.
func (f *FakeController) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "release")
	for i := len(f.order) - 1; i >= 0; i-- {
		f.Released = append(f.Released, f.order[i])
	}
	f.order = nil
	return f.ReleaseError
}

// Count returns how many recorded calls have the given prefix,
// e.g. Count("wait") or Count("release").
func (f *FakeController) Count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// CallLog returns a copy of the recorded calls.
func (f *FakeController) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}
