package monitor

import (
	"errors"
	"fmt"
)

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("monitor: already run")

// HardwareAccessError reports that a pin could not be configured.
// It is fatal: the monitor never waits or powers off after one.
type HardwareAccessError struct {
	Pin int
	Err error
}

func (e *HardwareAccessError) Error() string {
	return fmt.Sprintf("hardware access: pin %d: %v", e.Pin, e.Err)
}

func (e *HardwareAccessError) Unwrap() error { return e.Err }

// SignalWaitError reports a fault while blocked on the trigger edge.
// Logged and suppressed.
type SignalWaitError struct {
	Pin int
	Err error
}

func (e *SignalWaitError) Error() string {
	return fmt.Sprintf("wait for edge on pin %d: %v", e.Pin, e.Err)
}

func (e *SignalWaitError) Unwrap() error { return e.Err }

// PowerOffInvocationError reports that the power-off request could not be
// issued. Logged and suppressed; never retried.
type PowerOffInvocationError struct {
	Err error
}

func (e *PowerOffInvocationError) Error() string {
	return fmt.Sprintf("power off: %v", e.Err)
}

func (e *PowerOffInvocationError) Unwrap() error { return e.Err }

// Terminated is the cancellation cause for a run stopped by a process
// signal. Its value is the signal name, e.g. "SIGTERM".
type Terminated string

func (t Terminated) Error() string {
	return "terminated by " + string(t)
}
