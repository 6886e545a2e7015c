// Package disk reports capacity statistics for mounted filesystems.
package disk

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AdrianChallinorOsiris/monitor/internal/format"
)

// Metric names accepted by Format.
const (
	MetricAvail = "avail"
	MetricTotal = "total"
	MetricFree  = "free"
	MetricFreeP = "freep"
	MetricUsedP = "usedp"
	MetricFiles = "files"
)

var (
	// ErrUnknownMetric is returned by Format for an unrecognised metric name.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrNoCapacity is returned for percentage metrics on a filesystem that
	// reports zero total blocks (e.g. some pseudo filesystems).
	ErrNoCapacity = errors.New("no capacity data")

	// ErrInvalidMount is returned by ResolveMount for a name that is not a
	// single path segment.
	ErrInvalidMount = errors.New("invalid mount name")
)

// Stats is a point-in-time capacity reading of one filesystem.
type Stats struct {
	BlockSize   uint64
	TotalBlocks uint64
	FreeBlocks  uint64
	AvailBlocks uint64
	TotalInodes uint64
	FreeInodes  uint64
}

// TotalBytes is the filesystem size.
func (s Stats) TotalBytes() uint64 { return s.TotalBlocks * s.BlockSize }

// FreeBytes includes blocks reserved for the superuser.
func (s Stats) FreeBytes() uint64 { return s.FreeBlocks * s.BlockSize }

// AvailableBytes is the space usable by unprivileged users.
func (s Stats) AvailableBytes() uint64 { return s.AvailBlocks * s.BlockSize }

// FreePercent is FreeBlocks*100/TotalBlocks using integer division.
func (s Stats) FreePercent() (uint64, error) {
	if s.TotalBlocks == 0 {
		return 0, ErrNoCapacity
	}
	return s.FreeBlocks * 100 / s.TotalBlocks, nil
}

// ResolveMount maps a URL mount name to a filesystem path: "root" is "/",
// anything else is a directory directly under "/". Empty names, names
// containing a slash and the "." and ".." segments are rejected.
func ResolveMount(mount string) (string, error) {
	if mount == "root" {
		return "/", nil
	}
	if mount == "" || mount == "." || strings.Contains(mount, "/") || strings.Contains(mount, "..") {
		return "", fmt.Errorf("%q: %w", mount, ErrInvalidMount)
	}
	return "/" + mount, nil
}

// Format renders one metric of s.
func Format(s Stats, metric string) (string, error) {
	switch metric {
	case MetricAvail:
		return format.Bytes(s.AvailableBytes()), nil
	case MetricTotal:
		return format.Bytes(s.TotalBytes()), nil
	case MetricFree:
		return format.Bytes(s.FreeBytes()), nil
	case MetricFreeP:
		p, err := s.FreePercent()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d%%", p), nil
	case MetricUsedP:
		p, err := s.FreePercent()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d%%", 100-p), nil
	case MetricFiles:
		return strconv.FormatUint(s.TotalInodes, 10), nil
	default:
		return "", fmt.Errorf("%q: %w", metric, ErrUnknownMetric)
	}
}
