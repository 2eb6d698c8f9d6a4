package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/partar/partar/internal/errors"
	rtest "github.com/partar/partar/internal/test"
)

func TestRejectByPattern(t *testing.T) {
	var tests = []struct {
		filename string
		reject   bool
	}{
		{filename: "/home/user/foo.go", reject: true},
		{filename: "/home/user/foo.c", reject: false},
		{filename: "/home/user/foobar", reject: false},
		{filename: "/home/user/foobar/x", reject: true},
		{filename: "/home/user/README", reject: false},
		{filename: "/home/user/README.md", reject: true},
	}

	patterns := []string{"*.go", "README.md", "/home/user/foobar/*"}
	reject := RejectByPattern(patterns, nil)

	for _, tc := range tests {
		if res := reject(tc.filename); res != tc.reject {
			t.Errorf("wrong result for filename %v: want %v, got %v",
				tc.filename, tc.reject, res)
		}
	}
}

func TestRejectByInsensitivePattern(t *testing.T) {
	patterns := []string{"*.go", "README.md"}
	reject := RejectByInsensitivePattern(patterns, nil)

	rtest.Assert(t, reject("/home/user/foo.GO"), "foo.GO not rejected")
	rtest.Assert(t, reject("/home/user/readme.md"), "readme.md not rejected")
	rtest.Assert(t, !reject("/home/user/foo.c"), "foo.c rejected")

	// the caller's slice is left untouched
	rtest.Equals(t, []string{"*.go", "README.md"}, patterns)
}

func TestCollectPatterns(t *testing.T) {
	tempdir := rtest.TempDir(t)
	excludeFile := filepath.Join(tempdir, "excludes")
	rtest.OK(t, os.WriteFile(excludeFile, []byte("# generated files\n*.o\n"), 0600))

	opts := ExcludePatternOptions{
		Excludes:            []string{"*.tmp"},
		InsensitiveExcludes: []string{"CACHE"},
		ExcludeFiles:        []string{excludeFile},
	}
	rtest.Assert(t, !opts.Empty(), "options should not be empty")

	funcs, err := opts.CollectPatterns(t.Logf)
	rtest.OK(t, err)
	rtest.Equals(t, 2, len(funcs))

	rejected := func(path string) bool {
		for _, f := range funcs {
			if f(path) {
				return true
			}
		}
		return false
	}

	rtest.Assert(t, rejected("dir/a.tmp"), "*.tmp not rejected")
	rtest.Assert(t, rejected("dir/main.o"), "pattern from file not applied")
	rtest.Assert(t, rejected("dir/cache/x"), "insensitive pattern not applied")
	rtest.Assert(t, !rejected("dir/main.c"), "main.c rejected")
}

func TestCollectPatternsInvalid(t *testing.T) {
	opts := ExcludePatternOptions{Excludes: []string{"[x"}}
	_, err := opts.CollectPatterns(t.Logf)
	rtest.Assert(t, errors.IsUsage(err), "expected usage error, got %v", err)

	opts = ExcludePatternOptions{ExcludeFiles: []string{filepath.Join(rtest.TempDir(t), "missing")}}
	_, err = opts.CollectPatterns(t.Logf)
	rtest.Assert(t, errors.IsFatal(err), "expected fatal error, got %v", err)
}
