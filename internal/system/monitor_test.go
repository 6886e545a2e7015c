package system

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// writeTempDir creates the given files under a temp directory and returns
// the directory.
func writeTempDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", full, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
	return dir
}

const meminfo = `MemTotal:       32768000 kB
MemFree:         8192000 kB
MemAvailable:   16384000 kB
Buffers:          512000 kB
Cached:          6144000 kB
SwapCached:            0 kB
SwapTotal:       4096000 kB
SwapFree:        4096000 kB
`

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ---------------------------------------------------------------------------
// Constructor
// ---------------------------------------------------------------------------

func Test_NewMonitor_DefaultSample(t *testing.T) {
	m := NewMonitor("/proc", "/sys", 0)
	if m.cpuSample != DefaultCPUSample {
		t.Errorf("cpuSample = %s, want %s", m.cpuSample, DefaultCPUSample)
	}
	if m.cpuTimes == nil {
		t.Error("cpuTimes should default to the gopsutil sampler")
	}
}

// ---------------------------------------------------------------------------
// Thermal
// ---------------------------------------------------------------------------

func Test_Thermal_Cases(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		id      string
		want    int
		wantErr error
		anyErr  bool
	}{
		{
			name:  "millidegrees truncated to degrees",
			files: map[string]string{"devices/virtual/thermal/thermal_zone0/temp": "45678\n"},
			id:    "0",
			want:  45,
		},
		{
			name:  "second zone",
			files: map[string]string{"devices/virtual/thermal/thermal_zone2/temp": "61000"},
			id:    "2",
			want:  61,
		},
		{
			name:  "below zero truncates toward zero",
			files: map[string]string{"devices/virtual/thermal/thermal_zone0/temp": "-1500\n"},
			id:    "0",
			want:  -1,
		},
		{
			name:    "missing zone",
			files:   map[string]string{},
			id:      "7",
			wantErr: ErrThermalNotSupported,
		},
		{
			name:   "garbage content",
			files:  map[string]string{"devices/virtual/thermal/thermal_zone0/temp": "hot\n"},
			id:     "0",
			anyErr: true,
		},
		{
			name:   "empty file",
			files:  map[string]string{"devices/virtual/thermal/thermal_zone0/temp": ""},
			id:     "0",
			anyErr: true,
		},
		{
			name:    "relative path escapes thermal tree",
			files:   map[string]string{"secret/temp": "4242000\n"},
			id:      "/../../../../secret",
			wantErr: ErrThermalNotSupported,
		},
		{
			name:    "parent segments",
			files:   map[string]string{"devices/virtual/secret/temp": "4242000\n"},
			id:      "0/../../secret",
			wantErr: ErrThermalNotSupported,
		},
		{
			name:    "empty id",
			files:   map[string]string{"devices/virtual/thermal/thermal_zone/temp": "45000\n"},
			id:      "",
			wantErr: ErrThermalNotSupported,
		},
		{
			name:    "non-numeric id",
			files:   map[string]string{"devices/virtual/thermal/thermal_zone1a/temp": "45000\n"},
			id:      "1a",
			wantErr: ErrThermalNotSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor("/proc", writeTempDir(t, tt.files), time.Millisecond)
			got, err := m.Thermal(tt.id)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Thermal() error = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Fatalf("Thermal() = %d, want error", got)
				}
				if errors.Is(err, ErrThermalNotSupported) {
					t.Errorf("parse failure reported as unsupported: %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("Thermal() unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("Thermal() = %d, want %d", got, tt.want)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// CPU
// ---------------------------------------------------------------------------

func Test_loadBetween_Cases(t *testing.T) {
	tests := []struct {
		name string
		a, b cpu.TimesStat
		want CPULoad
	}{
		{
			name: "mixed window",
			a:    cpu.TimesStat{User: 100, Nice: 10, System: 50, Idle: 800, Iowait: 20, Irq: 5, Softirq: 5},
			b:    cpu.TimesStat{User: 120, Nice: 10, System: 60, Idle: 860, Iowait: 20, Irq: 10, Softirq: 10},
			want: CPULoad{User: 0.2, Nice: 0, System: 0.1, Interrupt: 0.1, Idle: 0.6},
		},
		{
			name: "iowait counts as idle",
			a:    cpu.TimesStat{},
			b:    cpu.TimesStat{Idle: 3, Iowait: 1},
			want: CPULoad{Idle: 1},
		},
		{
			name: "steal widens the window but has no field",
			a:    cpu.TimesStat{},
			b:    cpu.TimesStat{User: 1, Steal: 1, Idle: 2},
			want: CPULoad{User: 0.25, Idle: 0.5},
		},
		{
			name: "empty window is idle",
			a:    cpu.TimesStat{User: 5, Idle: 5},
			b:    cpu.TimesStat{User: 5, Idle: 5},
			want: CPULoad{Idle: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := loadBetween(tt.a, tt.b)
			if !approx(got.User, tt.want.User) || !approx(got.Nice, tt.want.Nice) ||
				!approx(got.System, tt.want.System) || !approx(got.Interrupt, tt.want.Interrupt) ||
				!approx(got.Idle, tt.want.Idle) {
				t.Errorf("loadBetween() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func Test_CPULoad_TakesTwoSamples(t *testing.T) {
	samples := []cpu.TimesStat{
		{User: 10, Idle: 90},
		{User: 30, Idle: 170},
	}
	calls := 0
	m := NewMonitor("/proc", "/sys", 20*time.Millisecond)
	m.cpuTimes = func(ctx context.Context) (cpu.TimesStat, error) {
		s := samples[calls]
		calls++
		return s, nil
	}

	start := time.Now()
	load, err := m.CPULoad(context.Background())
	if err != nil {
		t.Fatalf("CPULoad() unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("sampler called %d times, want 2", calls)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("CPULoad() returned after %s, want at least the sample window", elapsed)
	}
	if !approx(load.User, 0.2) || !approx(load.Idle, 0.8) {
		t.Errorf("CPULoad() = %+v, want user 0.2 idle 0.8", load)
	}
}

func Test_CPULoad_SamplerError(t *testing.T) {
	m := NewMonitor("/proc", "/sys", time.Millisecond)
	m.cpuTimes = func(ctx context.Context) (cpu.TimesStat, error) {
		return cpu.TimesStat{}, errors.New("stat unreadable")
	}
	if _, err := m.CPULoad(context.Background()); err == nil {
		t.Fatal("CPULoad() error = nil, want error")
	}
}

func Test_CPULoad_CancelledDuringWindow(t *testing.T) {
	m := NewMonitor("/proc", "/sys", time.Hour)
	m.cpuTimes = func(ctx context.Context) (cpu.TimesStat, error) {
		return cpu.TimesStat{Idle: 1}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.CPULoad(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("CPULoad() error = %v, want deadline exceeded", err)
	}
}

func Test_CPULoad_FromProcStat(t *testing.T) {
	proc := writeTempDir(t, map[string]string{
		"stat": "cpu  1000 50 300 8000 100 20 10 0 0 0\ncpu0 1000 50 300 8000 100 20 10 0 0 0\nbtime 1700000000\n",
	})
	m := NewMonitor(proc, "/sys", time.Millisecond)
	load, err := m.CPULoad(context.Background())
	if err != nil {
		t.Fatalf("CPULoad() unexpected error: %v", err)
	}
	// The file does not change between samples.
	if !approx(load.Idle, 1) {
		t.Errorf("CPULoad() on a static stat file = %+v, want fully idle", load)
	}
}

// ---------------------------------------------------------------------------
// gopsutil-backed readers against a fake proc root
// ---------------------------------------------------------------------------

func Test_Memory_FromMeminfo(t *testing.T) {
	proc := writeTempDir(t, map[string]string{"meminfo": meminfo})
	m := NewMonitor(proc, "/sys", 0)

	got, err := m.Memory(context.Background())
	if err != nil {
		t.Fatalf("Memory() unexpected error: %v", err)
	}
	if got.Total != 32768000*1024 {
		t.Errorf("Total = %d, want %d", got.Total, uint64(32768000*1024))
	}
	if got.Free != 16384000*1024 {
		t.Errorf("Free = %d, want MemAvailable %d", got.Free, uint64(16384000*1024))
	}
}

func Test_LiveHost_Readers(t *testing.T) {
	if _, err := os.Stat("/proc/stat"); err != nil {
		t.Skip("no /proc on this host")
	}
	m := NewMonitor("/proc", "/sys", 0)
	ctx := context.Background()

	if name, err := m.Hostname(); err != nil || name == "" {
		t.Errorf("Hostname() = %q, %v", name, err)
	}
	if up, err := m.Uptime(ctx); err != nil || up <= 0 {
		t.Errorf("Uptime() = %v, %v", up, err)
	}
	if avg, err := m.LoadAverage(ctx); err != nil || avg.One < 0 {
		t.Errorf("LoadAverage() = %+v, %v", avg, err)
	}
	if mem, err := m.Memory(ctx); err != nil || mem.Total == 0 {
		t.Errorf("Memory() = %+v, %v", mem, err)
	}
	if boot, err := m.BootTime(ctx); err != nil || !boot.Before(time.Now()) {
		t.Errorf("BootTime() = %s, %v", boot, err)
	}
}

// ---------------------------------------------------------------------------
// Uname
// ---------------------------------------------------------------------------

func Test_Uname_Cases(t *testing.T) {
	m := NewMonitor("/proc", "/sys", 0)
	for _, sel := range []string{"n", "s", "r", "v", "m"} {
		got, err := m.Uname(sel)
		if err != nil {
			t.Errorf("Uname(%q) unexpected error: %v", sel, err)
			continue
		}
		if got == "" {
			t.Errorf("Uname(%q) = empty", sel)
		}
	}

	for _, sel := range []string{"", "x", "N", "nodename"} {
		if _, err := m.Uname(sel); !errors.Is(err, ErrUnknownSelector) {
			t.Errorf("Uname(%q) error = %v, want ErrUnknownSelector", sel, err)
		}
	}
}
