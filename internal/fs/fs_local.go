package fs

import (
	"os"
	"path/filepath"
)

// Local is the local file system. Most methods are just passed on to the stdlib.
type Local struct{}

// statically ensure that Local implements FS.
var _ FS = &Local{}

// Open opens a file for reading.
func (fs Local) Open(name string) (File, error) {
	f, err := openForRead(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create creates the named file with mode 0666 (before umask), truncating
// it if it already exists.
func (fs Local) Create(name string) (*os.File, error) {
	return os.Create(name)
}

// Stat returns a FileInfo describing the named file, following symlinks.
func (fs Local) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// Lstat returns the FileInfo structure describing the named file.
// If the file is a symbolic link, the returned FileInfo
// describes the symbolic link.
func (fs Local) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(name)
}

// ReadDir reads the named directory without sorting the entries.
func (fs Local) ReadDir(name string) ([]os.DirEntry, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	entries, err := f.ReadDir(-1)
	cerr := f.Close()
	if err != nil {
		return nil, err
	}
	return entries, cerr
}

// Glob expands pattern, see filepath.Glob.
func (fs Local) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// Join joins any number of path elements into a single path.
func (fs Local) Join(elem ...string) string {
	return filepath.Join(elem...)
}
