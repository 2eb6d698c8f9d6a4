//go:build !windows && !plan9 && !js && !wasip1

package fs

import (
	"os"
	"syscall"
)

// OwnerOf returns the owner recorded in fi. The second return value is false
// if fi carries no owner information.
func OwnerOf(fi os.FileInfo) (Owner, bool) {
	s, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return Owner{}, false
	}

	return Owner{
		UID:   int(s.Uid),
		GID:   int(s.Gid),
		User:  lookupUsername(s.Uid),
		Group: lookupGroup(s.Gid),
	}, true
}
