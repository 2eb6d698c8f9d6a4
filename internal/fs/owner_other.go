//go:build windows || plan9 || js || wasip1

package fs

import "os"

// OwnerOf returns false, file ownership is not recorded on this platform.
func OwnerOf(_ os.FileInfo) (Owner, bool) {
	return Owner{}, false
}
