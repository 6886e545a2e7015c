//go:build linux || darwin || freebsd || netbsd || openbsd

package system

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Uname returns one uname(2) field picked by a single-letter selector:
// n (nodename), s (sysname), r (release), v (version) or m (machine).
func (m *Monitor) Uname(selector string) (string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	switch selector {
	case "n":
		return unix.ByteSliceToString(u.Nodename[:]), nil
	case "s":
		return unix.ByteSliceToString(u.Sysname[:]), nil
	case "r":
		return unix.ByteSliceToString(u.Release[:]), nil
	case "v":
		return unix.ByteSliceToString(u.Version[:]), nil
	case "m":
		return unix.ByteSliceToString(u.Machine[:]), nil
	default:
		return "", fmt.Errorf("%q: %w", selector, ErrUnknownSelector)
	}
}
