// Package gpio provides pin control with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"context"
	"errors"
)

// PinController owns the GPIO lines requested by the daemon.
type PinController interface {
	// ConfigureOutput requests offset as an output driven to value.
	ConfigureOutput(offset, value int) error

	// ConfigureInput requests offset as a pulled-down input with
	// rising-edge detection.
	ConfigureInput(offset int) error

	// WaitForRisingEdge blocks until a rising edge is seen on offset
	// or ctx is done. Returns ctx.Err() on cancellation.
	WaitForRisingEdge(ctx context.Context, offset int) error

	// Release returns every requested line to an inert input state
	// and closes it. Safe to call when nothing was requested.
	Release() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinIndicator = 23 // Alive indicator, driven high while running
	DefaultPinTrigger   = 24 // Shutdown request, rising edge = power off
)

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Consumer is the label shown against requested lines by gpioinfo.
const Consumer = "pi-shutdown"

// ErrNotConfigured is returned when waiting on a line that was never
// requested as an input.
var ErrNotConfigured = errors.New("gpio: line not configured as input")
