package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/AdrianChallinorOsiris/monitor/internal/apt"
	"github.com/AdrianChallinorOsiris/monitor/internal/disk"
	"github.com/AdrianChallinorOsiris/monitor/internal/filter"
	"github.com/AdrianChallinorOsiris/monitor/internal/format"
	"github.com/AdrianChallinorOsiris/monitor/internal/osrelease"
	"github.com/AdrianChallinorOsiris/monitor/internal/sensors"
	"github.com/AdrianChallinorOsiris/monitor/internal/system"
)

const bootTimeLayout = "2006-01-02 15:04:05 UTC"

// Deps holds the probes and paths a Service reads from.
type Deps struct {
	Host    HostProbe
	Sensors SensorSource
	Apt     UpdateChecker
	Net     PortProber
	// Stat defaults to disk.Stat.
	Stat         StatFunc
	OSRelease    string
	RebootMarker string
	Version      string
	// Port is the advertised listener port used in the sensor listing.
	Port int
	// PortFilter and MountFilter restrict /port and /disk targets; nil
	// allows everything.
	PortFilter  *filter.Filter
	MountFilter *filter.Filter
	Logger      *slog.Logger
}

// Service renders probe results as plaintext.
type Service struct {
	host         HostProbe
	sensors      SensorSource
	apt          UpdateChecker
	net          PortProber
	stat         StatFunc
	osRelease    string
	rebootMarker string
	version      string
	port         int
	ports        *filter.Filter
	mounts       *filter.Filter
	logger       *slog.Logger
}

// NewService creates a Service. Host, Sensors, Apt and Net are required.
func NewService(d Deps) *Service {
	if d.Host == nil || d.Sensors == nil || d.Apt == nil || d.Net == nil {
		panic("telemetry: NewService requires host, sensors, apt and net probes")
	}
	s := &Service{
		host:         d.Host,
		sensors:      d.Sensors,
		apt:          d.Apt,
		net:          d.Net,
		stat:         d.Stat,
		osRelease:    d.OSRelease,
		rebootMarker: d.RebootMarker,
		version:      d.Version,
		port:         d.Port,
		ports:        d.PortFilter,
		mounts:       d.MountFilter,
		logger:       d.Logger,
	}
	if s.stat == nil {
		s.stat = disk.Stat
	}
	if s.osRelease == "" {
		s.osRelease = osrelease.DefaultPath
	}
	if s.rebootMarker == "" {
		s.rebootMarker = apt.DefaultRebootMarker
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) degraded(probe string, err error, attrs ...any) {
	s.logger.Warn("probe degraded", append([]any{"probe", probe, "error", err}, attrs...)...)
}

// Status is the liveness string.
func (s *Service) Status() string {
	return "Status - Running - " + s.version
}

// Name returns the machine hostname.
func (s *Service) Name() string {
	name, err := s.host.Hostname()
	if err != nil {
		s.degraded("name", err)
		return fmt.Sprintf("name: error: %v", err)
	}
	return name
}

// OSField returns one os-release value.
func (s *Service) OSField(key string) string {
	val, err := osrelease.Lookup(s.osRelease, key)
	switch {
	case err == nil:
		return val
	case errors.Is(err, osrelease.ErrKeyNotFound):
		return fmt.Sprintf("404 - key %s not found", key)
	default:
		if !errors.Is(err, fs.ErrNotExist) {
			s.degraded("os-release", err)
		}
		return fmt.Sprintf("404 - os-release %v", err)
	}
}

// Temp returns a thermal zone temperature in whole degrees.
func (s *Service) Temp(id string) string {
	deg, err := s.host.Thermal(id)
	if err != nil {
		if errors.Is(err, system.ErrThermalNotSupported) {
			return ThermalMissingText
		}
		s.degraded("temp", err, "zone", id)
		return fmt.Sprintf("temp: error: %v", err)
	}
	return strconv.Itoa(deg)
}

// Sensor returns the first reading matching chip and param, compared
// case-insensitively.
func (s *Service) Sensor(ctx context.Context, chip, param string) string {
	readings, err := s.sensors.Read(ctx)
	if err != nil {
		if errors.Is(err, sensors.ErrNotAvailable) {
			return sensors.ErrNotAvailable.Error()
		}
		s.degraded("sensors", err)
		return fmt.Sprintf("sensors: error: %v", err)
	}
	r, ok := sensors.Find(readings, chip, param)
	if !ok {
		return FeatureNotFoundText
	}
	return r.Value
}

// SensorListing lists every reading as the URL that serves it.
func (s *Service) SensorListing(ctx context.Context) string {
	host := s.Name()
	var b strings.Builder
	fmt.Fprintf(&b, "%s : Listing all sensors in conky monitor format\n\n", host)

	readings, err := s.sensors.Read(ctx)
	if err != nil && !errors.Is(err, sensors.ErrNotAvailable) {
		s.degraded("sensors", err)
	}
	if len(readings) == 0 {
		b.WriteString(NoSensorsText + "\n")
		return b.String()
	}
	for _, r := range readings {
		fmt.Fprintf(&b, "http://%s:%d/sensors/%s/%s = %s\n", host, s.port, r.Device, r.Metric, r.Value)
	}
	return b.String()
}

// Uptime returns the formatted time since boot.
func (s *Service) Uptime(ctx context.Context) string {
	secs, err := s.host.Uptime(ctx)
	if err != nil {
		s.degraded("uptime", err)
		return fmt.Sprintf("uptime: %v", err)
	}
	return format.Uptime(secs)
}

// AptCheck returns apt-check's human readable report.
func (s *Service) AptCheck(ctx context.Context) string {
	out, err := s.apt.Verbose(ctx)
	if err != nil {
		if errors.Is(err, apt.ErrNotAvailable) {
			return apt.ErrNotAvailable.Error()
		}
		s.degraded("aptcheck", err)
		return fmt.Sprintf("apt-check: error: %v", err)
	}
	return out
}

// AptCheckBrief returns the installable and security update counts.
func (s *Service) AptCheckBrief(ctx context.Context) string {
	st, err := s.apt.Brief(ctx)
	switch {
	case err == nil:
		return st.String()
	case errors.Is(err, apt.ErrNotAvailable):
		return apt.ErrNotAvailable.Error()
	case errors.Is(err, apt.ErrMalformedOutput):
		s.degraded("aptcheckbrief", err)
		return "Installable: ? - Security: ?"
	default:
		s.degraded("aptcheckbrief", err)
		return fmt.Sprintf("apt-check: error: %v", err)
	}
}

// Reboot returns the reboot-required flag text, empty when not required.
func (s *Service) Reboot() string {
	return apt.RebootRequired(s.rebootMarker)
}

// Disk returns one capacity metric for a mount name.
func (s *Service) Disk(mount, param string) string {
	if !s.mounts.Allows(mount) {
		return fmt.Sprintf("404 - mount %s not permitted", mount)
	}
	path, err := disk.ResolveMount(mount)
	if err != nil {
		return fmt.Sprintf("404 - mount %s not permitted", mount)
	}
	st, err := s.stat(path)
	if err != nil {
		s.degraded("disk", err, "path", path)
		return "io error on disk: " + path
	}
	out, err := disk.Format(st, param)
	switch {
	case err == nil:
		return out
	case errors.Is(err, disk.ErrUnknownMetric):
		return UnknownParamText
	case errors.Is(err, disk.ErrNoCapacity):
		return disk.ErrNoCapacity.Error()
	default:
		s.degraded("disk", err, "path", path)
		return fmt.Sprintf("disk: error: %v", err)
	}
}

// LoadAvg returns the 1, 5 and 15 minute load averages.
func (s *Service) LoadAvg(ctx context.Context) string {
	l, err := s.host.LoadAverage(ctx)
	if err != nil {
		s.degraded("loadavg", err)
		return fmt.Sprintf("\nLoad average: error: %v", err)
	}
	return fmt.Sprintf("\nLoad average: %s %s %s", formatFloat(l.One), formatFloat(l.Five), formatFloat(l.Fifteen))
}

// CPULoad returns the per-state CPU breakdown over one sampling window.
func (s *Service) CPULoad(ctx context.Context) string {
	c, err := s.host.CPULoad(ctx)
	if err != nil {
		s.degraded("cpuload", err)
		return fmt.Sprintf("\nCPU load: error: %v", err)
	}
	return fmt.Sprintf("CPU load: %d%% user, %d%% nice, %d%% system, %d%% intr, %d%% idle ",
		percent(c.User), percent(c.Nice), percent(c.System), percent(c.Interrupt), percent(c.Idle))
}

// CPU returns the aggregate busy percentage.
func (s *Service) CPU(ctx context.Context) string {
	c, err := s.host.CPULoad(ctx)
	if err != nil {
		s.degraded("cpu", err)
		return fmt.Sprintf("\nCPU error: %v", err)
	}
	return strconv.FormatInt(100-percent(c.Idle), 10)
}

// Boot returns the boot timestamp in UTC.
func (s *Service) Boot(ctx context.Context) string {
	t, err := s.host.BootTime(ctx)
	if err != nil {
		s.degraded("boot", err)
		return fmt.Sprintf("\nBoot time: error: %v", err)
	}
	return "\nBoot time: " + t.UTC().Format(bootTimeLayout)
}

// Uname returns one uname field selected by n, s, r, v or m.
func (s *Service) Uname(selector string) string {
	v, err := s.host.Uname(selector)
	if err != nil {
		if errors.Is(err, system.ErrUnknownSelector) {
			return UnknownSelectorText
		}
		s.degraded("uname", err)
		return fmt.Sprintf("uname: error: %v", err)
	}
	return v
}

// Memory returns total and available physical memory.
func (s *Service) Memory(ctx context.Context) string {
	m, err := s.host.Memory(ctx)
	if err != nil {
		s.degraded("memory", err)
		return fmt.Sprintf("\nMemory error: %v", err)
	}
	return fmt.Sprintf("\nMemory total: %s free: %s )", format.Bytes(m.Total), format.Bytes(m.Free))
}

// IP returns the outbound local address or "None".
func (s *Service) IP() string {
	return s.net.OutboundIP()
}

// Port reports whether anything accepts TCP connections on port.
func (s *Service) Port(ctx context.Context, port uint16) string {
	if !s.ports.Allows(strconv.Itoa(int(port))) {
		return fmt.Sprintf("404 - port %d not permitted", port)
	}
	if s.net.PortIsUp(ctx, port) {
		return UpText
	}
	return DownText
}

func percent(frac float64) int64 {
	return int64(frac * 100)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
