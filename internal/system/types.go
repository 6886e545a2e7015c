// Package system reads host-level state: identity, uptime, load, CPU,
// memory and thermal zones. Paths to /proc and /sys are configurable so the
// monitor can run against a host mounted into a container.
package system

import "errors"

var (
	// ErrThermalNotSupported is returned when the requested thermal zone
	// does not exist on this hardware.
	ErrThermalNotSupported = errors.New("thermal zone not supported on this hardware")

	// ErrUnknownSelector is returned by Uname for a selector other than n, s, r, v or m.
	ErrUnknownSelector = errors.New("unknown uname selector")
)

// CPULoad is the share of CPU time spent in each state over a sampling
// window. Fields are fractions in [0, 1].
type CPULoad struct {
	User      float64
	Nice      float64
	System    float64
	Interrupt float64 // irq + softirq
	Idle      float64 // idle + iowait
}

// LoadAverage holds the 1, 5 and 15 minute run-queue averages.
type LoadAverage struct {
	One     float64
	Five    float64
	Fifteen float64
}

// Memory holds physical memory figures in bytes.
type Memory struct {
	Total uint64
	// Free is memory available for new allocations without swapping
	// (MemAvailable), not the kernel's bare MemFree.
	Free uint64
}
