package archiver

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
	"github.com/partar/partar/internal/fs"
)

// FoundFunc is called for every regular file found by a Scanner. fi describes
// the file itself, symlinks are already resolved.
type FoundFunc func(ctx context.Context, path string, fi os.FileInfo) error

// Scanner expands inputs into the regular files they denote. Each input and
// each directory is processed as a separate task, each file found is passed
// to Found in a task of its own.
type Scanner struct {
	FS           fs.FS
	SelectByName SelectByNameFunc
	Select       SelectFunc
	Found        FoundFunc
}

// NewScanner initializes a new Scanner.
func NewScanner(filesystem fs.FS) *Scanner {
	return &Scanner{
		FS:           filesystem,
		SelectByName: func(_ string) bool { return true },
		Select:       func(_ string, _ os.FileInfo, _ fs.FS) bool { return true },
		Found:        func(_ context.Context, _ string, _ os.FileInfo) error { return nil },
	}
}

// Submit queues one task per input on pool.
func (s *Scanner) Submit(pool *TaskPool, inputs []string) {
	for _, input := range inputs {
		pool.Submit(func(ctx context.Context) error {
			return s.expand(ctx, pool, input)
		})
	}
}

// isPattern returns true if input contains glob metacharacters.
func isPattern(input string) bool {
	magic := `*?[`
	if runtime.GOOS != "windows" {
		magic += `\`
	}
	return strings.ContainsAny(input, magic)
}

// expand resolves a single input. A literal path must exist, a pattern may
// match nothing.
func (s *Scanner) expand(ctx context.Context, pool *TaskPool, input string) error {
	if !isPattern(input) {
		fi, err := s.FS.Lstat(input)
		if err != nil {
			return errors.WithKind(errors.WithStack(err), errors.KindFilesystem)
		}
		return s.visitInput(ctx, pool, input, fi)
	}

	matches, err := s.FS.Glob(input)
	if err != nil {
		return errors.WithKind(errors.Wrapf(err, "pattern %q", input), errors.KindPattern)
	}

	debug.Log("pattern %q matched %d paths", input, len(matches))

	for _, match := range matches {
		fi, err := s.FS.Lstat(match)
		if err != nil {
			return errors.WithKind(errors.WithStack(err), errors.KindFilesystem)
		}

		if err := s.visitInput(ctx, pool, match, fi); err != nil {
			return err
		}
	}

	return nil
}

// visitInput handles a path named on the command line or matched by a
// pattern. Symlinks are followed, to directories as well as to files.
func (s *Scanner) visitInput(ctx context.Context, pool *TaskPool, item string, fi os.FileInfo) error {
	if !s.SelectByName(item) {
		debug.Log("%v is excluded by name", item)
		return nil
	}

	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := s.FS.Stat(item)
		if err != nil {
			return errors.WithKind(errors.WithStack(err), errors.KindFilesystem)
		}
		fi = target
	}

	if !s.Select(item, fi, s.FS) {
		debug.Log("%v is excluded", item)
		return nil
	}

	switch {
	case fi.IsDir():
		s.submitDir(pool, item)
	case fi.Mode().IsRegular():
		s.submitFile(pool, item, fi)
	default:
		debug.Log("skipping %v, not a regular file (%v)", item, fi.Mode().Type())
	}

	return ctx.Err()
}

func (s *Scanner) submitDir(pool *TaskPool, dir string) {
	pool.Submit(func(ctx context.Context) error {
		return s.walkDir(ctx, pool, dir)
	})
}

func (s *Scanner) submitFile(pool *TaskPool, item string, fi os.FileInfo) {
	pool.Submit(func(ctx context.Context) error {
		return s.Found(ctx, item, fi)
	})
}

// walkDir reads the entries of dir. Subdirectories become new tasks, they
// are not descended into here.
func (s *Scanner) walkDir(ctx context.Context, pool *TaskPool, dir string) error {
	entries, err := s.FS.ReadDir(dir)
	if err != nil {
		return errors.WithKind(errors.WithStack(err), errors.KindFilesystem)
	}

	debug.Log("%v: %d entries", dir, len(entries))

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		item := s.FS.Join(dir, entry.Name())
		if !s.SelectByName(item) {
			debug.Log("%v is excluded by name", item)
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			return errors.WithKind(errors.WithStack(err), errors.KindFilesystem)
		}

		if fi.Mode()&os.ModeSymlink != 0 {
			s.visitSymlink(pool, item)
			continue
		}

		if !s.Select(item, fi, s.FS) {
			debug.Log("%v is excluded", item)
			continue
		}

		switch {
		case fi.IsDir():
			s.submitDir(pool, item)
		case fi.Mode().IsRegular():
			s.submitFile(pool, item, fi)
		default:
			debug.Log("skipping %v, not a regular file (%v)", item, fi.Mode().Type())
		}
	}

	return nil
}

// visitSymlink archives the target of a symlink found inside a directory if
// it is a regular file. Links to directories are not followed.
func (s *Scanner) visitSymlink(pool *TaskPool, item string) {
	fi, err := s.FS.Stat(item)
	if err != nil {
		debug.Log("skipping dangling symlink %v: %v", item, err)
		return
	}

	switch {
	case fi.Mode().IsRegular():
		if !s.Select(item, fi, s.FS) {
			debug.Log("%v is excluded", item)
			return
		}
		s.submitFile(pool, item, fi)
	case fi.IsDir():
		debug.Log("not following symlink %v to a directory", item)
	default:
		debug.Log("skipping symlink %v to %v", item, fi.Mode().Type())
	}
}
