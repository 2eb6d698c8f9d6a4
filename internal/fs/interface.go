package fs

import (
	"io"
	"os"
)

// FS bundles all methods needed to enumerate and load input files.
type FS interface {
	// Open opens a file for reading.
	Open(name string) (File, error)
	// Create creates or truncates the named file for writing.
	Create(name string) (*os.File, error)

	Stat(name string) (os.FileInfo, error)
	Lstat(name string) (os.FileInfo, error)
	// ReadDir returns the entries of the directory name. The order of the
	// entries is unspecified.
	ReadDir(name string) ([]os.DirEntry, error)
	// Glob returns the names of all files matching pattern, or nil if there
	// is no matching file. The only possible error is filepath.ErrBadPattern.
	Glob(pattern string) ([]string, error)

	Join(elem ...string) string
}

// File is an open file on a file system.
type File interface {
	io.Reader
	io.Closer

	Name() string
	Stat() (os.FileInfo, error)
}
