// Package osrelease reads fields from the os-release(5) file.
package osrelease

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultPath is the standard location of the os-release file.
const DefaultPath = "/etc/os-release"

// ErrKeyNotFound is returned when no line of the file carries the key.
var ErrKeyNotFound = errors.New("key not found")

// Lookup returns the value of the first KEY=VALUE line in the file at path
// whose key equals key. One layer of surrounding double quotes is removed.
func Lookup(path, key string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		k, v, ok := strings.Cut(scanner.Text(), "=")
		if !ok || k != key {
			continue
		}
		return stripQuotes(strings.TrimSpace(v)), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan %s: %w", path, err)
	}
	return "", fmt.Errorf("%s in %s: %w", key, path, ErrKeyNotFound)
}

// stripQuotes removes one pair of surrounding double quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
