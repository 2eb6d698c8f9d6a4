package filter_test

import (
	"testing"

	"github.com/partar/partar/internal/filter"
)

var matchTests = []struct {
	pattern string
	path    string
	match   bool
}{
	{"", "", true},
	{"", "foo", true},
	{"*.go", "/foo/bar/test.go", true},
	{"*.c", "/foo/bar/test.go", false},
	{"*", "/foo/bar/test.go", true},
	{"foo*", "/foo/bar/test.go", true},
	{"bar*", "/foo/bar/test.go", true},
	{"/bar*", "/foo/bar/test.go", false},
	{"bar/*", "/foo/bar/test.go", true},
	{"baz/*", "/foo/bar/test.go", false},
	{"bar/test.go", "/foo/bar/test.go", true},
	{"/foo/*test.*", "/foo/bar/test.go", false},
	{"/foo/*/test.*", "/foo/bar/test.go", true},
	{"/foo/**/test.*", "/foo/bar/test.go", true},
	{"/foo/**/test.*", "/foo/test.go", true},
	{"/**/*.go", "/foo/bar/test.go", true},
	{"dir/**", "dir/sub/y", true},
	{"dir/**", "other/sub/y", false},
	{"sub", "dir/sub", true},
	{"sub", "dir/sub/y", true},
	{"sub/x", "dir/sub/y", false},
	{"**/y", "dir/sub/y", true},
	{"a.txt", "a.txt", true},
	{"*.txt", "a.txt", true},
}

func TestMatch(t *testing.T) {
	for _, test := range matchTests {
		m, err := filter.Match(test.pattern, test.path)
		if err != nil && test.path != "" {
			t.Errorf("test pattern %q, path %q: error %v", test.pattern, test.path, err)
			continue
		}

		if m != test.match {
			t.Errorf("test pattern %q, path %q: expected %v, got %v",
				test.pattern, test.path, test.match, m)
		}
	}
}

func TestMatchBadString(t *testing.T) {
	_, err := filter.Match("*.go", "")
	if err != filter.ErrBadString {
		t.Fatalf("expected ErrBadString, got %v", err)
	}
}

func TestList(t *testing.T) {
	patterns := filter.ParsePatterns([]string{"*.o", "", "build/**"})
	if len(patterns) != 2 {
		t.Fatalf("empty pattern not skipped: %v", patterns)
	}

	for path, want := range map[string]bool{
		"src/main.o":      true,
		"src/main.c":      false,
		"build/out/a.bin": true,
		"buildx/a.bin":    false,
	} {
		got, err := filter.List(patterns, path)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("List(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestValidatePatterns(t *testing.T) {
	if err := filter.ValidatePatterns([]string{"*.go", "dir/**"}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := filter.ValidatePatterns([]string{"*.go", "[x"}); err == nil {
		t.Fatal("expected an error for a malformed pattern")
	}
}
