// Package filter limits which ports and mounts the monitor will probe.
package filter

import "path/filepath"

// Filter matches probe targets against glob allow and deny lists.
//
// Rules:
//   - Both lists empty: every target is allowed.
//   - The denylist is checked first and always wins.
//   - A non-empty allowlist admits only targets matching one of its patterns.
//
// A nil *Filter allows everything.
type Filter struct {
	allowlist []string
	denylist  []string
}

// New returns a Filter for the given pattern lists. Either may be nil.
func New(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// Allows reports whether target may be probed.
func (f *Filter) Allows(target string) bool {
	if f == nil {
		return true
	}
	for _, pattern := range f.denylist {
		if matchGlob(pattern, target) {
			return false
		}
	}
	if len(f.allowlist) == 0 {
		return true
	}
	for _, pattern := range f.allowlist {
		if matchGlob(pattern, target) {
			return true
		}
	}
	return false
}

// matchGlob treats malformed patterns as non-matching.
func matchGlob(pattern, target string) bool {
	matched, err := filepath.Match(pattern, target)
	if err != nil {
		return false
	}
	return matched
}
