//go:build !linux

package gpio

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// ChipController is not available on non-Linux platforms.
type ChipController struct{}

// NewChipController returns a controller whose Configure calls always fail.
func NewChipController(name string) *ChipController {
	return &ChipController{}
}

// ConfigureOutput is not implemented on non-Linux platforms.
func (c *ChipController) ConfigureOutput(offset, value int) error {
	return errUnsupported
}

// ConfigureInput is not implemented on non-Linux platforms.
func (c *ChipController) ConfigureInput(offset int) error {
	return errUnsupported
}

// WaitForRisingEdge is not implemented on non-Linux platforms.
func (c *ChipController) WaitForRisingEdge(ctx context.Context, offset int) error {
	return errUnsupported
}

// Release is a no-op on non-Linux platforms.
func (c *ChipController) Release() error {
	return nil
}
