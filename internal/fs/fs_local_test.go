package fs

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	rtest "github.com/partar/partar/internal/test"
)

func TestLocalReadDir(t *testing.T) {
	tempdir := rtest.TempDir(t)
	rtest.TestFiles{
		"x":     "x",
		"sub/y": "y",
	}.Create(t, tempdir)

	entries, err := Local{}.ReadDir(tempdir)
	rtest.OK(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	rtest.Equals(t, []string{"sub", "x"}, names)

	_, err = Local{}.ReadDir(filepath.Join(tempdir, "missing"))
	rtest.Assert(t, os.IsNotExist(err), "expected not-exist error, got %v", err)
}

func TestLocalGlob(t *testing.T) {
	tempdir := rtest.TempDir(t)
	rtest.TestFiles{
		"a.txt": "a",
		"b.txt": "b",
		"c.dat": "c",
	}.Create(t, tempdir)

	matches, err := Local{}.Glob(filepath.Join(tempdir, "*.txt"))
	rtest.OK(t, err)
	sort.Strings(matches)
	rtest.Equals(t, []string{filepath.Join(tempdir, "a.txt"), filepath.Join(tempdir, "b.txt")}, matches)

	matches, err = Local{}.Glob(filepath.Join(tempdir, "*.none"))
	rtest.OK(t, err)
	rtest.Equals(t, 0, len(matches))

	_, err = Local{}.Glob("[")
	rtest.Assert(t, err == filepath.ErrBadPattern, "expected ErrBadPattern, got %v", err)
}

func TestTrackClose(t *testing.T) {
	tempdir := rtest.TempDir(t)
	rtest.TestFiles{"a": "content"}.Create(t, tempdir)

	fs := Track{Local{}}
	f, err := fs.Open(filepath.Join(tempdir, "a"))
	rtest.OK(t, err)

	fi, err := f.Stat()
	rtest.OK(t, err)
	rtest.Equals(t, int64(7), fi.Size())

	rtest.OK(t, f.Close())
}
