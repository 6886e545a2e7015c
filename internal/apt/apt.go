// Package apt reports package-update availability through Ubuntu's
// update-notifier apt-check helper, and the reboot-required marker.
package apt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AdrianChallinorOsiris/monitor/internal/command"
)

const (
	// DefaultCheckBinary is where update-notifier-common installs apt-check.
	DefaultCheckBinary = "/usr/lib/update-notifier/apt-check"

	// DefaultRebootMarker is touched by package hooks that need a reboot.
	DefaultRebootMarker = "/var/run/reboot-required"

	// RebootRequiredText is served when the marker exists.
	RebootRequiredText = "REBOOT REQUIRED"
)

var (
	// ErrNotAvailable is returned when apt-check is not installed.
	ErrNotAvailable = errors.New("apt-check not available")

	// ErrMalformedOutput is returned when the brief output is not "<a>;<b>".
	ErrMalformedOutput = errors.New("malformed apt-check output")
)

// Status holds the two counts printed by apt-check in brief mode.
type Status struct {
	Installable string
	Security    string
}

// String renders s in the widget format.
func (s Status) String() string {
	return fmt.Sprintf("Installable: %s - Security: %s", s.Installable, s.Security)
}

// ParseBrief parses apt-check's machine-readable "<installable>;<security>"
// line. Surrounding whitespace around each field is dropped.
func ParseBrief(raw string) (Status, error) {
	fields := strings.Split(strings.TrimSpace(raw), ";")
	if len(fields) < 2 {
		return Status{}, fmt.Errorf("%w: %q", ErrMalformedOutput, raw)
	}
	return Status{
		Installable: strings.TrimSpace(fields[0]),
		Security:    strings.TrimSpace(fields[1]),
	}, nil
}

// Checker runs apt-check.
type Checker struct {
	binary string
	runner command.Runner
}

// NewChecker returns a Checker for the apt-check binary at path.
func NewChecker(path string, runner command.Runner) *Checker {
	if runner == nil {
		panic("command runner must not be nil")
	}
	if path == "" {
		path = DefaultCheckBinary
	}
	return &Checker{binary: path, runner: runner}
}

// Verbose returns the human-readable report exactly as apt-check prints it.
func (c *Checker) Verbose(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "--human-readable")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Brief returns the update counts. apt-check prints them on stderr.
func (c *Checker) Brief(ctx context.Context) (Status, error) {
	res, err := c.run(ctx)
	if err != nil {
		return Status{}, err
	}
	return ParseBrief(res.Stderr)
}

func (c *Checker) run(ctx context.Context, args ...string) (command.Result, error) {
	res, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		if errors.Is(err, command.ErrNotFound) {
			return res, fmt.Errorf("%s: %w", c.binary, ErrNotAvailable)
		}
		return res, fmt.Errorf("apt-check: %w", err)
	}
	if res.ExitCode != 0 {
		return res, fmt.Errorf("apt-check exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res, nil
}

// RebootRequired returns RebootRequiredText if the marker file exists and
// the empty string otherwise.
func RebootRequired(marker string) string {
	if _, err := os.Stat(marker); err == nil {
		return RebootRequiredText
	}
	return ""
}
