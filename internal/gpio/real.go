//go:build linux

package gpio

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// ChipController drives lines on a Linux GPIO character device.
type ChipController struct {
	name  string
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
	order []int // request order, released in reverse
	edges map[int]chan gpiocdev.LineEvent
}

// NewChipController creates a controller for the named chip.
// The chip is opened lazily by the first Configure call so that an
// unavailable chip surfaces as a configuration failure.
func NewChipController(name string) *ChipController {
	return &ChipController{
		name:  name,
		lines: make(map[int]*gpiocdev.Line),
		edges: make(map[int]chan gpiocdev.LineEvent),
	}
}

func (c *ChipController) open() error {
	if c.chip != nil {
		return nil
	}
	chip, err := gpiocdev.NewChip(c.name, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return fmt.Errorf("open gpio chip %s: %w", c.name, err)
	}
	c.chip = chip
	return nil
}

func (c *ChipController) request(offset int, opts ...gpiocdev.LineReqOption) error {
	if _, ok := c.lines[offset]; ok {
		return fmt.Errorf("pin %d already requested", offset)
	}
	if err := c.open(); err != nil {
		return err
	}
	line, err := c.chip.RequestLine(offset, opts...)
	if err != nil {
		return fmt.Errorf("request pin %d: %w", offset, err)
	}
	c.lines[offset] = line
	c.order = append(c.order, offset)
	return nil
}

// ConfigureOutput requests offset as an output at the given value.
func (c *ChipController) ConfigureOutput(offset, value int) error {
	return c.request(offset, gpiocdev.AsOutput(value))
}

// ConfigureInput requests offset as an input with pull-down bias and
// rising-edge events.
func (c *ChipController) ConfigureInput(offset int) error {
	// Capacity 1: only the first edge matters, the rest are dropped.
	edges := make(chan gpiocdev.LineEvent, 1)
	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type != gpiocdev.LineEventRisingEdge {
			return
		}
		select {
		case edges <- evt:
		default:
		}
	}
	err := c.request(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		return err
	}
	c.edges[offset] = edges
	return nil
}

// WaitForRisingEdge blocks until the watcher reports a rising edge on offset.
func (c *ChipController) WaitForRisingEdge(ctx context.Context, offset int) error {
	edges, ok := c.edges[offset]
	if !ok {
		return fmt.Errorf("wait on pin %d: %w", offset, ErrNotConfigured)
	}
	select {
	case <-edges:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release reconfigures every requested line to input with pull-down
// (matching Pi boot defaults) and closes it, then closes the chip.
// An indicator pin left floating or driven could be misread by an external
// power supervisor while the system halts.
func (c *ChipController) Release() error {
	var errs []error

	for i := len(c.order) - 1; i >= 0; i-- {
		offset := c.order[i]
		line := c.lines[offset]
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", offset, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", offset, err))
		}
		delete(c.lines, offset)
		delete(c.edges, offset)
	}
	c.order = nil

	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("release errors: %v", errs)
	}
	return nil
}
