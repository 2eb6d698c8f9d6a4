package archiver

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
	"github.com/partar/partar/internal/filter"
	"github.com/partar/partar/internal/fs"
)

// SelectByNameFunc returns true for all items that should be included (files
// and dirs). If false is returned, files are ignored and dirs are not even
// walked.
type SelectByNameFunc func(item string) bool

// SelectFunc returns true for all items that should be included (files and
// dirs). If false is returned, files are ignored and dirs are not even walked.
type SelectFunc func(item string, fi os.FileInfo, fs fs.FS) bool

// RejectFunc is a function that takes a filename and os.FileInfo of a file
// that would be archived. The function returns true if it should be excluded
// (rejected) from the archive.
type RejectFunc func(path string, fi os.FileInfo, fs fs.FS) bool

// CombineRejectByNames turns a list of reject functions into a select
// function.
func CombineRejectByNames(funcs []filter.RejectByNameFunc) SelectByNameFunc {
	return func(item string) bool {
		for _, reject := range funcs {
			if reject(item) {
				return false
			}
		}
		return true
	}
}

// CombineRejects turns a list of reject functions into a select function.
func CombineRejects(funcs []RejectFunc) SelectFunc {
	return func(item string, fi os.FileInfo, fs fs.FS) bool {
		for _, reject := range funcs {
			if reject(item, fi, fs) {
				return false
			}
		}
		return true
	}
}

// RejectSameFile returns a RejectFunc which rejects the file described by
// target, usually the archive being written.
func RejectSameFile(target os.FileInfo) RejectFunc {
	return func(item string, fi os.FileInfo, _ fs.FS) bool {
		if target == nil || !fi.Mode().IsRegular() {
			return false
		}

		if os.SameFile(target, fi) {
			debug.Log("%v is the output file", item)
			return true
		}
		return false
	}
}

// RejectBySize returns a RejectFunc which rejects files larger than maxSize.
// Directories are never rejected.
func RejectBySize(maxSize int64) RejectFunc {
	return func(item string, fi os.FileInfo, _ fs.FS) bool {
		if fi.IsDir() {
			return false
		}

		if fi.Size() > maxSize {
			debug.Log("file %s is oversize: %d", item, fi.Size())
			return true
		}

		return false
	}
}

type rejectionCache struct {
	m   map[string]bool
	mtx sync.Mutex
}

func newRejectionCache() *rejectionCache {
	return &rejectionCache{m: make(map[string]bool)}
}

// RejectIfPresent returns a RejectFunc which rejects everything inside a
// directory that contains a tag file. excludeFileSpec has the form
// "filename[:content]"; with content given, the tag file must start with it.
// Directories are walked concurrently, so results are cached per directory.
func RejectIfPresent(excludeFileSpec string, warnf func(msg string, args ...interface{})) (RejectFunc, error) {
	if excludeFileSpec == "" {
		return nil, errors.New("name for exclusion tagfile is empty")
	}

	tf, tc, _ := strings.Cut(excludeFileSpec, ":")
	if tf == "" {
		return nil, errors.New("no name for exclusion tagfile provided")
	}

	debug.Log("using %q as exclusion tagfile", tf)
	rc := newRejectionCache()
	return func(item string, _ os.FileInfo, fs fs.FS) bool {
		return isExcludedByFile(item, tf, tc, rc, fs, warnf)
	}, nil
}

// isExcludedByFile returns true if item is in a directory containing the tag
// file. The tag file itself is kept.
func isExcludedByFile(item, tagFilename, header string, rc *rejectionCache, fs fs.FS, warnf func(msg string, args ...interface{})) bool {
	if filepath.Base(item) == tagFilename {
		return false
	}

	dir := filepath.Dir(item)

	rc.mtx.Lock()
	defer rc.mtx.Unlock()

	rejected, visited := rc.m[dir]
	if visited {
		return rejected
	}
	rejected = isDirExcludedByFile(dir, tagFilename, header, fs, warnf)
	rc.m[dir] = rejected
	return rejected
}

func isDirExcludedByFile(dir, tagFilename, header string, fs fs.FS, warnf func(msg string, args ...interface{})) bool {
	tf := fs.Join(dir, tagFilename)
	_, err := fs.Lstat(tf)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	if err != nil {
		warnf("could not access exclusion tagfile: %v", err)
		return false
	}

	// the mere presence of the tag file is enough without a signature
	if len(header) == 0 {
		return true
	}

	f, err := fs.Open(tf)
	if err != nil {
		warnf("could not open exclusion tagfile: %v", err)
		return false
	}
	defer func() {
		_ = f.Close()
	}()

	buf := make([]byte, len(header))
	_, err = io.ReadFull(f, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		warnf("invalid (too short) signature in exclusion tagfile %q", tf)
		return false
	}
	if err != nil {
		warnf("could not read signature from exclusion tagfile %q: %v", tf, err)
		return false
	}
	if !bytes.Equal(buf, []byte(header)) {
		warnf("invalid signature in exclusion tagfile %q", tf)
		return false
	}
	return true
}
