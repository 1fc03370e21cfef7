// Package power issues the host power-off request.
package power

import (
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// PowerOffer asks the operating system to halt and cut power.
type PowerOffer interface {
	PowerOff() error
}

// DefaultCommand is the power-off command line used when none is given.
const DefaultCommand = "poweroff"

// Command runs an external program to power off the host.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a command line on whitespace.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, errors.New("empty power-off command")
	}
	return Command{Name: fields[0], Args: fields[1:]}, nil
}

// PowerOff runs the command and waits for it to exit.
// The command is not tied to a context: the init system signals every
// process during shutdown and the request must not be killed half-way.
func (c Command) PowerOff() error {
	out, err := exec.Command(c.Name, c.Args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("run %s: %w: %s", c.Name, err, msg)
		}
		return fmt.Errorf("run %s: %w", c.Name, err)
	}
	return nil
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// DryRun logs the command it would have run.
type DryRun struct {
	Command Command
}

// PowerOff logs instead of powering off.
func (d DryRun) PowerOff() error {
	log.Printf("dry-run: would run %q", d.Command.String())
	return nil
}
