//go:build linux

package fs

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
)

// openForRead opens a file without updating the atime and tells the kernel
// that it will be read sequentially.
func openForRead(name string) (*os.File, error) {
	f, err := os.OpenFile(name, os.O_RDONLY|unix.O_NOATIME, 0)
	if errors.Is(err, os.ErrPermission) {
		// O_NOATIME is only allowed for the owner of the file
		f, err = os.OpenFile(name, os.O_RDONLY, 0)
	}
	if err != nil {
		return nil, err
	}

	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil {
		debug.Log("fadvise %v: %v", name, err)
	}
	return f, nil
}
