package test

import (
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/partar/partar/internal/errors"
)

// Assert fails the test if the condition is false.
func Assert(tb testing.TB, condition bool, msg string, v ...interface{}) {
	tb.Helper()
	if !condition {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("\033[31m%s:%d: "+msg+"\033[39m\n\n", append([]interface{}{filepath.Base(file), line}, v...)...)
		tb.FailNow()
	}
}

// OK fails the test if an err is not nil.
func OK(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("\033[31m%s:%d: unexpected error: %+v\033[39m\n\n", filepath.Base(file), line, err)
		tb.FailNow()
	}
}

// Equals fails the test if exp is not equal to act. The failure message
// contains a diff of both values.
func Equals(tb testing.TB, exp, act interface{}, opts ...cmp.Option) {
	tb.Helper()
	if diff := cmp.Diff(exp, act, opts...); diff != "" {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("\033[31m%s:%d: mismatch (-want +got):\n%s\033[39m\n\n", filepath.Base(file), line, diff)
		tb.FailNow()
	}
}

// Random returns count bytes of pseudo-random data derived from the seed.
func Random(seed, count int) []byte {
	p := make([]byte, count)
	rnd := mrand.New(mrand.NewSource(int64(seed)))
	// math/rand.Rand.Read never returns an error
	_, _ = rnd.Read(p)
	return p
}

// TempDir returns a temporary directory that is removed by t.Cleanup,
// except if TestCleanupTempDirs is set to false.
func TempDir(t testing.TB) string {
	tempdir, err := os.MkdirTemp(TestTempDir, "partar-test-")
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if !TestCleanupTempDirs {
			t.Logf("leaving temporary directory %v used for test", tempdir)
			return
		}

		RemoveAll(t, tempdir)
	})
	return tempdir
}

// ResetReadOnly recursively makes everything below dir writable again, so
// that tests which revoke permissions can still clean up.
func ResetReadOnly(t testing.TB, dir string) {
	err := filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
		if fi == nil {
			return err
		}

		if fi.IsDir() {
			return os.Chmod(path, 0777)
		}

		if fi.Mode().IsRegular() {
			return os.Chmod(path, 0666)
		}

		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	OK(t, err)
}

// RemoveAll resets the permissions below path and removes it.
func RemoveAll(t testing.TB, path string) {
	ResetReadOnly(t, path)
	err := os.RemoveAll(path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	OK(t, err)
}

// Chdir changes the current directory to dest. The previous directory is
// restored by t.Cleanup.
func Chdir(t testing.TB, dest string) {
	t.Helper()

	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("chdir to %v", dest)
	err = os.Chdir(dest)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		t.Logf("chdir back to %v", prev)
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

// TestFiles maps slash-separated relative paths to file contents.
type TestFiles map[string]string

// Create writes all files below dir, creating parent directories as needed.
func (files TestFiles) Create(t testing.TB, dir string) {
	t.Helper()
	for name, content := range files {
		filename := filepath.Join(dir, filepath.FromSlash(name))
		OK(t, os.MkdirAll(filepath.Dir(filename), 0755))
		OK(t, os.WriteFile(filename, []byte(content), 0644))
	}
}
