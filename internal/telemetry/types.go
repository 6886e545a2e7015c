// Package telemetry composes the host probes into string-returning
// operations. Every operation is total: probe failures are logged and
// rendered as response text, never returned to the caller.
package telemetry

import (
	"context"
	"time"

	"github.com/AdrianChallinorOsiris/monitor/internal/apt"
	"github.com/AdrianChallinorOsiris/monitor/internal/disk"
	"github.com/AdrianChallinorOsiris/monitor/internal/netprobe"
	"github.com/AdrianChallinorOsiris/monitor/internal/sensors"
	"github.com/AdrianChallinorOsiris/monitor/internal/system"
)

// Fixed response texts.
const (
	NotFoundText        = "404 - Sorry, I can't do that Dave."
	FeatureNotFoundText = "404-Feature not found"
	ThermalMissingText  = "404 - Not supported on this hardware"
	UnknownParamText    = "unknown param"
	UnknownSelectorText = "Param?"
	NoSensorsText       = "No sensors found"
	UpText              = "Up"
	DownText            = "Down"
)

// OSKeys maps the /os/<field> names to os-release keys.
var OSKeys = map[string]string{
	"name":        "NAME",
	"version":     "VERSION_ID",
	"versionname": "VERSION",
	"codename":    "UBUNTU_CODENAME",
}

// HostProbe reads host-level state.
type HostProbe interface {
	Hostname() (string, error)
	Uptime(ctx context.Context) (float64, error)
	BootTime(ctx context.Context) (time.Time, error)
	LoadAverage(ctx context.Context) (system.LoadAverage, error)
	Memory(ctx context.Context) (system.Memory, error)
	CPULoad(ctx context.Context) (system.CPULoad, error)
	Thermal(id string) (int, error)
	Uname(selector string) (string, error)
}

// SensorSource lists the current hardware sensor readings.
type SensorSource interface {
	Read(ctx context.Context) ([]sensors.Reading, error)
}

// UpdateChecker reports package-update availability.
type UpdateChecker interface {
	Verbose(ctx context.Context) (string, error)
	Brief(ctx context.Context) (apt.Status, error)
}

// PortProber checks local TCP reachability.
type PortProber interface {
	OutboundIP() string
	PortIsUp(ctx context.Context, port uint16) bool
}

// StatFunc returns capacity statistics for a filesystem path.
type StatFunc func(path string) (disk.Stats, error)

// Compile-time checks that the concrete probes satisfy the interfaces.
var (
	_ HostProbe     = (*system.Monitor)(nil)
	_ SensorSource  = (*sensors.Reader)(nil)
	_ UpdateChecker = (*apt.Checker)(nil)
	_ PortProber    = (*netprobe.Prober)(nil)
)
