// Package format renders raw counters as the short strings served to
// monitor widgets.
package format

import (
	"fmt"
	"math"
)

// byteUnits is ordered smallest first; Bytes never indexes past the last entry.
var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// Bytes renders n as a rounded binary size such as "512 B", "1 KB" or "3 GB".
// Values too large for YB are still expressed in YB.
func Bytes(n uint64) string {
	val := float64(n)
	unit := 0
	for val >= 1024 && unit < len(byteUnits)-1 {
		val /= 1024
		unit++
	}
	return fmt.Sprintf("%d %s", uint64(math.Round(val)), byteUnits[unit])
}

// Uptime renders a duration in seconds as "{d}d {h}h {m}m {s}s".
// Fractional seconds are truncated; negative input renders as zero.
func Uptime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s := uint64(seconds)
	m := s / 60
	h := m / 60
	d := h / 24
	return fmt.Sprintf("%dd %dh %dm %ds", d, h%24, m%60, s%60)
}
