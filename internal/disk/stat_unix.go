//go:build unix

package disk

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Stat queries the filesystem containing path.
func Stat(path string) (Stats, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Stats{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	return Stats{
		BlockSize:   uint64(st.Bsize),
		TotalBlocks: st.Blocks,
		FreeBlocks:  st.Bfree,
		AvailBlocks: st.Bavail,
		TotalInodes: st.Files,
		FreeInodes:  st.Ffree,
	}, nil
}
