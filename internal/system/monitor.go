package system

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/common"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultCPUSample is the window between the two /proc/stat samples taken
// for CPU load. It is the latency floor of every CPU endpoint.
const DefaultCPUSample = time.Second

// Monitor reads host state from the given proc and sys roots.
type Monitor struct {
	procPath  string
	sysPath   string
	cpuSample time.Duration

	// cpuTimes is swapped out in tests.
	cpuTimes func(ctx context.Context) (cpu.TimesStat, error)
}

// NewMonitor returns a Monitor.
//
//   - procPath  is the proc filesystem root (normally /proc).
//   - sysPath   is the sys filesystem root (normally /sys).
//   - cpuSample is the CPU sampling window; zero selects DefaultCPUSample.
func NewMonitor(procPath, sysPath string, cpuSample time.Duration) *Monitor {
	if cpuSample <= 0 {
		cpuSample = DefaultCPUSample
	}
	m := &Monitor{
		procPath:  procPath,
		sysPath:   sysPath,
		cpuSample: cpuSample,
	}
	m.cpuTimes = m.aggregateTimes
	return m
}

// hostContext points gopsutil at the configured roots instead of the
// HOST_PROC / HOST_SYS environment variables.
func (m *Monitor) hostContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, common.EnvKey, common.EnvMap{
		common.HostProcEnvKey: m.procPath,
		common.HostSysEnvKey:  m.sysPath,
	})
}

// Hostname returns the kernel host name.
func (m *Monitor) Hostname() (string, error) {
	name, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("hostname: %w", err)
	}
	return name, nil
}

// Uptime returns the time since boot in seconds.
func (m *Monitor) Uptime(ctx context.Context) (float64, error) {
	secs, err := host.UptimeWithContext(m.hostContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("uptime: %w", err)
	}
	return float64(secs), nil
}

// BootTime returns the moment the host booted.
func (m *Monitor) BootTime(ctx context.Context) (time.Time, error) {
	secs, err := host.BootTimeWithContext(m.hostContext(ctx))
	if err != nil {
		return time.Time{}, fmt.Errorf("boot time: %w", err)
	}
	return time.Unix(int64(secs), 0).UTC(), nil
}

// LoadAverage returns the 1/5/15 minute load averages.
func (m *Monitor) LoadAverage(ctx context.Context) (LoadAverage, error) {
	avg, err := load.AvgWithContext(m.hostContext(ctx))
	if err != nil {
		return LoadAverage{}, fmt.Errorf("load average: %w", err)
	}
	return LoadAverage{One: avg.Load1, Five: avg.Load5, Fifteen: avg.Load15}, nil
}

// Memory returns total and available physical memory.
func (m *Monitor) Memory(ctx context.Context) (Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(m.hostContext(ctx))
	if err != nil {
		return Memory{}, fmt.Errorf("memory: %w", err)
	}
	return Memory{Total: vm.Total, Free: vm.Available}, nil
}

// CPULoad samples aggregate CPU times twice, cpuSample apart, and returns
// the share of the window spent in each state. It blocks for the whole
// window unless ctx is cancelled first.
func (m *Monitor) CPULoad(ctx context.Context) (CPULoad, error) {
	before, err := m.cpuTimes(ctx)
	if err != nil {
		return CPULoad{}, fmt.Errorf("cpu sample: %w", err)
	}

	timer := time.NewTimer(m.cpuSample)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return CPULoad{}, fmt.Errorf("cpu sample: %w", ctx.Err())
	case <-timer.C:
	}

	after, err := m.cpuTimes(ctx)
	if err != nil {
		return CPULoad{}, fmt.Errorf("cpu sample: %w", err)
	}
	return loadBetween(before, after), nil
}

func (m *Monitor) aggregateTimes(ctx context.Context) (cpu.TimesStat, error) {
	times, err := cpu.TimesWithContext(m.hostContext(ctx), false)
	if err != nil {
		return cpu.TimesStat{}, err
	}
	if len(times) == 0 {
		return cpu.TimesStat{}, errors.New("no aggregate cpu line")
	}
	return times[0], nil
}

// loadBetween converts two cumulative samples into per-state fractions.
// An empty window reports the CPU as fully idle.
func loadBetween(a, b cpu.TimesStat) CPULoad {
	user := b.User - a.User
	nice := b.Nice - a.Nice
	system := b.System - a.System
	intr := (b.Irq - a.Irq) + (b.Softirq - a.Softirq)
	idle := (b.Idle - a.Idle) + (b.Iowait - a.Iowait)
	steal := b.Steal - a.Steal

	total := user + nice + system + intr + idle + steal
	if total <= 0 {
		return CPULoad{Idle: 1}
	}
	return CPULoad{
		User:      user / total,
		Nice:      nice / total,
		System:    system / total,
		Interrupt: intr / total,
		Idle:      idle / total,
	}
}

// Thermal reads {sysPath}/devices/virtual/thermal/thermal_zone<id>/temp and
// returns whole degrees Celsius. An id that is not a zone number is reported
// as ErrThermalNotSupported without touching the filesystem.
func (m *Monitor) Thermal(id string) (int, error) {
	if !isZoneID(id) {
		return 0, fmt.Errorf("zone %q: %w", id, ErrThermalNotSupported)
	}
	path := filepath.Join(m.sysPath, "devices", "virtual", "thermal", "thermal_zone"+id, "temp")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("zone %s: %w", id, ErrThermalNotSupported)
		}
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	millideg, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return millideg / 1000, nil
}

func isZoneID(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
