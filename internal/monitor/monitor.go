// Package monitor arms the shutdown trigger and powers the host off when it fires.
//
// A run is: configure pins → wait for one rising edge → power off → release
// pins. Release is deferred before configuration starts, so it runs exactly
// once on every exit path, including fatal configuration errors and panics.
//
// Error policy: configuration errors are returned. Wait faults and power-off
// faults are logged and suppressed. Cancellation of the run context is a clean
// termination. Anything else (including waiting on a line that was never
// configured) is returned unchanged.
package monitor

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sweeney/pi-shutdown/internal/gpio"
	"github.com/sweeney/pi-shutdown/internal/mqtt"
	"github.com/sweeney/pi-shutdown/internal/power"
	"github.com/sweeney/pi-shutdown/internal/status"
)

// Shutdown reasons reported with the final SHUTDOWN event.
const (
	ReasonPowerOff       = "POWEROFF"
	ReasonDryRun         = "DRY_RUN"
	ReasonPowerOffFailed = "POWEROFF_FAILED"
	ReasonWaitFailed     = "WAIT_FAILED"
	ReasonCancelled      = "CANCELLED"
	ReasonError          = "ERROR"
)

// Config holds the pin assignment for one run.
type Config struct {
	PinIndicator int
	PinTrigger   int
	DryRun       bool // only changes the reported shutdown reason
}

// Monitor performs a single shutdown watch.
type Monitor struct {
	cfg   Config
	pins  gpio.PinController
	power power.PowerOffer

	// Publisher receives lifecycle events. Optional.
	Publisher mqtt.Publisher

	// Tracker is kept up to date with the run phase. Optional.
	Tracker *status.Tracker

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	ran bool
}

// New creates a Monitor for the given pins and power-off capability.
func New(cfg Config, pins gpio.PinController, pow power.PowerOffer) *Monitor {
	return &Monitor{
		cfg:   cfg,
		pins:  pins,
		power: pow,
		Now:   time.Now,
	}
}

// Run configures the pins, blocks until the trigger fires or ctx is done, and
// powers off on a trigger. Pins are released before Run returns.
func (m *Monitor) Run(ctx context.Context) error {
	if m.ran {
		return ErrAlreadyRun
	}
	m.ran = true

	phase := status.PhaseStopped
	reason := ReasonError
	defer func() {
		m.cleanup()
		m.setPhase(phase)
		m.publish(mqtt.EventShutdown, reason)
	}()

	if err := m.configure(); err != nil {
		phase = status.PhaseFailed
		return err
	}

	m.setPhase(status.PhaseArmed)
	log.Printf("armed: indicator pin %d high, waiting for rising edge on pin %d", m.cfg.PinIndicator, m.cfg.PinTrigger)
	m.publish(mqtt.EventStartup, "")

	if err := m.awaitShutdownSignal(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			reason = cancelReason(ctx)
			log.Printf("wait cancelled (%s), not powering off", reason)
			return nil
		}
		var waitErr *SignalWaitError
		if errors.As(err, &waitErr) {
			reason = ReasonWaitFailed
			log.Printf("suppressed: %v", err)
			return nil
		}
		return err
	}

	m.setPhase(status.PhaseTriggered)
	log.Printf("rising edge on pin %d, powering off", m.cfg.PinTrigger)
	m.publish(mqtt.EventTriggered, "")

	if err := m.triggerPowerOff(); err != nil {
		reason = ReasonPowerOffFailed
		log.Printf("suppressed: %v", err)
		return nil
	}

	reason = ReasonPowerOff
	if m.cfg.DryRun {
		reason = ReasonDryRun
	}
	return nil
}

// configure requests the indicator first so that a trigger failure still
// leaves something for cleanup to release.
func (m *Monitor) configure() error {
	if err := m.pins.ConfigureOutput(m.cfg.PinIndicator, 1); err != nil {
		return &HardwareAccessError{Pin: m.cfg.PinIndicator, Err: err}
	}
	if err := m.pins.ConfigureInput(m.cfg.PinTrigger); err != nil {
		return &HardwareAccessError{Pin: m.cfg.PinTrigger, Err: err}
	}
	return nil
}

func (m *Monitor) awaitShutdownSignal(ctx context.Context) error {
	err := m.pins.WaitForRisingEdge(ctx, m.cfg.PinTrigger)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return err
	case errors.Is(err, gpio.ErrNotConfigured):
		// A bug in the caller, not a hardware fault.
		return err
	default:
		return &SignalWaitError{Pin: m.cfg.PinTrigger, Err: err}
	}
}

func (m *Monitor) triggerPowerOff() error {
	if err := m.power.PowerOff(); err != nil {
		return &PowerOffInvocationError{Err: err}
	}
	return nil
}

func (m *Monitor) cleanup() {
	if err := m.pins.Release(); err != nil {
		log.Printf("release pins: %v", err)
		return
	}
	log.Printf("released pins %d and %d", m.cfg.PinIndicator, m.cfg.PinTrigger)
}

func (m *Monitor) setPhase(phase status.Phase) {
	if m.Tracker != nil {
		m.Tracker.SetPhase(phase, m.Now())
	}
}

func (m *Monitor) publish(event, reason string) {
	if m.Publisher == nil {
		return
	}
	e := mqtt.SystemEvent{
		Timestamp: m.Now(),
		Event:     event,
		Reason:    reason,
	}
	if m.Tracker != nil {
		if cs, ok := m.Publisher.(mqtt.ConnectionStatus); ok {
			m.Tracker.SetMQTTConnected(cs.IsConnected())
		}
		e.RawPayload = status.FormatStatusEvent(m.Tracker.Snapshot(), event, reason)
	}
	if err := m.Publisher.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	}
}

func cancelReason(ctx context.Context) string {
	var term Terminated
	if errors.As(context.Cause(ctx), &term) {
		return string(term)
	}
	return ReasonCancelled
}
