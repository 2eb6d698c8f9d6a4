//go:build !linux

package fs

import "os"

func openForRead(name string) (*os.File, error) {
	return os.Open(name)
}
