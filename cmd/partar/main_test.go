package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/partar/partar/internal/archiver"
	"github.com/partar/partar/internal/errors"
	rtest "github.com/partar/partar/internal/test"
)

func testRunRoot(t testing.TB, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.TODO())
}

func TestRootCommand(t *testing.T) {
	env := withTestEnvironment(t)
	rtest.TestFiles{"a.txt": "hello", "dir/b.txt": "world"}.Create(t, env.testdata)

	rtest.OK(t, testRunRoot(t, "-j", "3", "-l", "5", "-w", "2", env.output, "a.txt", "dir"))
	rtest.Equals(t, []string{"a.txt", "dir/b.txt"}, testEntryNames(t, env))

	lines := strings.Split(strings.TrimSpace(env.stderr.String()), "\n")
	rtest.Equals(t, 2, len(lines))
}

func TestRootCommandQuiet(t *testing.T) {
	env := withTestEnvironment(t)
	rtest.TestFiles{"a.txt": "hello"}.Create(t, env.testdata)

	rtest.OK(t, testRunRoot(t, "--quiet", env.output, "a.txt"))
	rtest.Equals(t, "", env.stderr.String())
	rtest.Equals(t, uint(0), globalOptions.verbosity)
}

func TestRootCommandUsage(t *testing.T) {
	env := withTestEnvironment(t)
	rtest.TestFiles{"a.txt": "hello"}.Create(t, env.testdata)

	for _, args := range [][]string{
		{},
		{env.output},
		{"--jobs", "many", env.output, "a.txt"},
		{"--no-such-flag", env.output, "a.txt"},
		{"--quiet", "--verbose", env.output, "a.txt"},
		{"--jobs", "0", env.output, "a.txt"},
		{"--level", "99", env.output, "a.txt"},
	} {
		globalOptions = env.gopts
		err := testRunRoot(t, args...)
		rtest.Assert(t, errors.IsUsage(err), "expected usage error for %v, got %v", args, err)
		rtest.Equals(t, 2, exitCode(err))
	}

	_, err := os.Stat(env.output)
	rtest.Assert(t, errors.Is(err, os.ErrNotExist), "output should not exist, got %v", err)
}

func TestRootCommandMissingInput(t *testing.T) {
	env := withTestEnvironment(t)

	err := testRunRoot(t, env.output, filepath.Join(env.testdata, "missing"))
	rtest.Equals(t, errors.KindFilesystem, errors.KindOf(err))
	rtest.Equals(t, 1, exitCode(err))
}

func TestRootCommandCanceled(t *testing.T) {
	env := withTestEnvironment(t)
	rtest.TestFiles{"a.txt": "hello"}.Create(t, env.testdata)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCommand()
	cmd.SetArgs([]string{env.output, "a.txt"})
	err := cmd.ExecuteContext(ctx)
	rtest.Assert(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)
	rtest.Equals(t, 130, exitCode(err))
}

func TestExitCode(t *testing.T) {
	for _, test := range []struct {
		err  error
		code int
	}{
		{nil, 0},
		{context.Canceled, 130},
		{errors.Wrap(context.Canceled, "walk"), 130},
		{errors.Usagef("bad flag"), 2},
		{errors.Fatal("broken"), 1},
		{errors.WithKind(errors.New("read failed"), errors.KindFilesystem), 1},
		{errors.New("unexpected"), 1},
	} {
		rtest.Equals(t, test.code, exitCode(test.err))
	}
}

func TestExitMessage(t *testing.T) {
	rtest.Equals(t, "", exitMessage(nil))

	msg := exitMessage(errors.Usagef("--jobs must be at least 1, got 0"))
	rtest.Assert(t, strings.HasPrefix(msg, "Fatal: --jobs must be at least 1, got 0\n"), "unexpected message %q", msg)
	rtest.Assert(t, strings.HasSuffix(msg, "Run 'partar --help' for usage."), "missing hint in %q", msg)

	rtest.Equals(t, "Fatal: broken", exitMessage(errors.Fatal("broken")))

	err := errors.WithKind(errors.New("open missing: no such file or directory"), errors.KindFilesystem)
	rtest.Equals(t, "filesystem error: open missing: no such file or directory", exitMessage(err))

	err = errors.WithKind(errors.New("name contains .."), errors.KindArchive)
	rtest.Equals(t, "archive error: name contains ..", exitMessage(err))

	// unknown errors carry a stack trace
	msg = exitMessage(errors.New("unexpected"))
	rtest.Assert(t, strings.HasPrefix(msg, "unexpected\n"), "missing stack trace in %q", msg)
}

func TestProgress(t *testing.T) {
	env := withTestEnvironment(t)

	for _, test := range []struct {
		verbosity uint
		output    string
	}{
		{0, ""},
		{1, "dir/a.txt\n"},
		{2, "dir/a.txt\n"},
		{3, "dir/a.txt (1.000 KiB)\n"},
	} {
		env.stderr.Reset()
		globalOptions.verbosity = test.verbosity

		p := newProgress(globalOptions)
		p.CompleteItem("dir/a.txt", 1024)
		rtest.Equals(t, test.output, env.stderr.String())
	}

	env.stderr.Reset()
	globalOptions.verbosity = 1
	newProgress(globalOptions).Finish(archiver.Stats{Files: 2, Bytes: 10, PeakInFlight: 1}, 2, 5, 0)
	rtest.Equals(t, "", env.stderr.String())

	globalOptions.verbosity = 2
	newProgress(globalOptions).Finish(archiver.Stats{Files: 2, Bytes: 10, PeakInFlight: 1}, 2, 5, 0)
	rtest.Equals(t, "archived 2 files, 10 B in 0:00\n"+
		"output 5 B (50.00% of input)\n"+
		"at most 1 of 2 loaded files waited for the writer\n", env.stderr.String())
}
