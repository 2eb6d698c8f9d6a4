package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/partar/partar/internal/archiver"
	"github.com/partar/partar/internal/filter"
	rtest "github.com/partar/partar/internal/test"
)

type testEnvironment struct {
	base, testdata, output string
	gopts                  GlobalOptions
	stderr                 *bytes.Buffer
}

// withTestEnvironment creates a directory for test data, changes into it and
// captures the diagnostic output. The global options are restored by
// t.Cleanup.
func withTestEnvironment(t testing.TB) *testEnvironment {
	tempdir := rtest.TempDir(t)

	env := &testEnvironment{
		base:     tempdir,
		testdata: filepath.Join(tempdir, "testdata"),
		output:   filepath.Join(tempdir, "out.tar.zst"),
		stderr:   &bytes.Buffer{},
	}
	rtest.OK(t, os.MkdirAll(env.testdata, 0700))
	rtest.Chdir(t, env.testdata)

	env.gopts = GlobalOptions{
		stdout:    io.Discard,
		stderr:    env.stderr,
		verbosity: 1,
	}

	prev := globalOptions
	globalOptions = env.gopts
	t.Cleanup(func() {
		globalOptions = prev
	})

	return env
}

func defaultArchiveOptions() ArchiveOptions {
	return ArchiveOptions{Jobs: 1, Workers: 1}
}

func testRunArchive(t testing.TB, env *testEnvironment, opts ArchiveOptions, inputs ...string) error {
	t.Helper()
	args := append([]string{env.output}, inputs...)
	return runArchive(context.TODO(), opts, globalOptions, args)
}

// testEntryNames returns the sorted names of all entries in the output.
func testEntryNames(t testing.TB, env *testEnvironment) []string {
	t.Helper()

	var names []string
	for _, e := range archiver.TestSortEntries(archiver.TestReadArchive(t, env.output)) {
		names = append(names, e.Name)
	}
	return names
}

func filterOptions(excludes ...string) filter.ExcludePatternOptions {
	return filter.ExcludePatternOptions{Excludes: excludes}
}
