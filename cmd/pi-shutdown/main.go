// Command pi-shutdown holds an alive indicator pin high and powers the host
// off when the shutdown trigger pin sees a rising edge.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/pi-shutdown/internal/gpio"
	"github.com/sweeney/pi-shutdown/internal/monitor"
	"github.com/sweeney/pi-shutdown/internal/mqtt"
	"github.com/sweeney/pi-shutdown/internal/power"
	"github.com/sweeney/pi-shutdown/internal/status"
	"github.com/sweeney/pi-shutdown/internal/web"
)

type config struct {
	chip         string
	pinIndicator int
	pinTrigger   int
	dryRun       bool
	powerOffCmd  string
	broker       string
	httpAddr     string
}

func main() {
	var cfg config
	flag.StringVar(&cfg.chip, "chip", gpio.DefaultChip, "GPIO character device")
	flag.IntVar(&cfg.pinIndicator, "pin-indicator", gpio.DefaultPinIndicator, "BCM pin number driven high while running")
	flag.IntVar(&cfg.pinTrigger, "pin-trigger", gpio.DefaultPinTrigger, "BCM pin number whose rising edge powers off")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Log instead of powering off")
	flag.StringVar(&cfg.powerOffCmd, "poweroff", power.DefaultCommand, "Power-off command line")
	flag.StringVar(&cfg.broker, "broker", "", "MQTT broker address for lifecycle events (empty to disable)")
	flag.StringVar(&cfg.httpAddr, "http", "", "HTTP status address (empty to disable)")

	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func (c config) validate() error {
	if c.chip == "" {
		return errors.New("chip must not be empty")
	}
	if c.pinIndicator < 0 || c.pinTrigger < 0 {
		return fmt.Errorf("pin numbers must not be negative (indicator=%d trigger=%d)", c.pinIndicator, c.pinTrigger)
	}
	if c.pinIndicator == c.pinTrigger {
		return fmt.Errorf("indicator and trigger must be different pins (both %d)", c.pinTrigger)
	}
	return nil
}

func run(cfg config) error {
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cmd, err := power.ParseCommand(cfg.powerOffCmd)
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	var pow power.PowerOffer = cmd
	if cfg.dryRun {
		pow = power.DryRun{Command: cmd}
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Chip:         cfg.chip,
		PinIndicator: cfg.pinIndicator,
		PinTrigger:   cfg.pinTrigger,
		DryRun:       cfg.dryRun,
		PowerOffCmd:  cmd.String(),
		Broker:       cfg.broker,
		HTTPAddr:     cfg.httpAddr,
	})

	publisher := newPublisher(cfg.broker)
	defer publisher.Close()

	// Start HTTP status server
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	log.Printf("started: chip=%s indicator=%d trigger=%d dry-run=%v poweroff=%q",
		cfg.chip, cfg.pinIndicator, cfg.pinTrigger, cfg.dryRun, cmd.String())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, stop := cancelOnSignal(sigCh)
	defer stop()

	return runMonitor(ctx, cfg, gpio.NewChipController(cfg.chip), pow, publisher, tracker)
}

func runMonitor(ctx context.Context, cfg config, pins gpio.PinController, pow power.PowerOffer, publisher mqtt.Publisher, tracker *status.Tracker) error {
	m := monitor.New(monitor.Config{
		PinIndicator: cfg.pinIndicator,
		PinTrigger:   cfg.pinTrigger,
		DryRun:       cfg.dryRun,
	}, pins, pow)
	m.Publisher = publisher
	m.Tracker = tracker
	return m.Run(ctx)
}

// cancelOnSignal returns a context cancelled with a monitor.Terminated cause
// when a signal arrives on sig.
func cancelOnSignal(sig <-chan os.Signal) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(context.Background())
	go func() {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			cancel(monitor.Terminated(signalName(s)))
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(nil) }
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// newPublisher connects to broker, falling back to a no-op publisher when
// no broker is configured or it cannot be reached. The shutdown watch never
// depends on MQTT.
func newPublisher(broker string) mqtt.Publisher {
	if broker == "" {
		return mqtt.Nop{}
	}
	host, err := os.Hostname()
	if err != nil {
		log.Printf("hostname: %v", err)
	}
	p, err := mqtt.NewRealPublisher(broker, host)
	if err != nil {
		log.Printf("mqtt disabled: %v", err)
		return mqtt.Nop{}
	}
	log.Printf("mqtt connected to %s, topic %s", broker, mqtt.TopicSystem(host))
	return p
}
