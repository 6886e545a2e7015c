package sensors

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AdrianChallinorOsiris/monitor/internal/command"
)

// DefaultBinary is where lm-sensors installs the sensors command.
const DefaultBinary = "/usr/bin/sensors"

// ErrNotAvailable is returned when the sensors binary is not installed.
var ErrNotAvailable = errors.New("sensors not available")

// Reader runs the sensors binary and parses its output.
type Reader struct {
	binary string
	runner command.Runner
}

// NewReader returns a Reader for the binary at path, run through runner.
func NewReader(path string, runner command.Runner) *Reader {
	if runner == nil {
		panic("command runner must not be nil")
	}
	if path == "" {
		path = DefaultBinary
	}
	return &Reader{binary: path, runner: runner}
}

// Read runs `sensors -A` and returns every reading it reports. An installed
// binary that reports nothing yields an empty slice and no error.
func (r *Reader) Read(ctx context.Context) ([]Reading, error) {
	if _, err := os.Stat(r.binary); err != nil {
		return nil, fmt.Errorf("stat %s: %w", r.binary, ErrNotAvailable)
	}

	res, err := r.runner.Run(ctx, r.binary, "-A")
	if err != nil {
		if errors.Is(err, command.ErrNotFound) {
			return nil, fmt.Errorf("run %s: %w", r.binary, ErrNotAvailable)
		}
		return nil, fmt.Errorf("run sensors: %w", err)
	}
	// sensors exits non-zero when it finds no chips; that is an empty
	// result, not a failure.
	readings := Parse(res.Stdout)
	if readings == nil {
		readings = []Reading{}
	}
	return readings, nil
}
