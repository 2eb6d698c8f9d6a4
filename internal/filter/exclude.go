package filter

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
	"github.com/partar/partar/internal/textfile"
)

// RejectByNameFunc is a function that takes a path found while enumerating
// the inputs. The function returns true if it should be excluded (rejected)
// from the archive.
type RejectByNameFunc func(path string) bool

// RejectByPattern returns a RejectByNameFunc which rejects files that match
// one of the patterns.
func RejectByPattern(patterns []string, warnf func(msg string, args ...interface{})) RejectByNameFunc {
	parsedPatterns := ParsePatterns(patterns)
	return func(item string) bool {
		matched, err := List(parsedPatterns, item)
		if err != nil && warnf != nil {
			warnf("error for exclude pattern: %v", err)
		}

		if matched {
			debug.Log("path %q excluded by an exclude pattern", item)
			return true
		}

		return false
	}
}

// RejectByInsensitivePattern is like RejectByPattern but case insensitive.
func RejectByInsensitivePattern(patterns []string, warnf func(msg string, args ...interface{})) RejectByNameFunc {
	lower := make([]string, 0, len(patterns))
	for _, pat := range patterns {
		lower = append(lower, strings.ToLower(pat))
	}

	rejFunc := RejectByPattern(lower, warnf)
	return func(item string) bool {
		return rejFunc(strings.ToLower(item))
	}
}

// ExcludePatternOptions collects the exclude flags of the command line.
type ExcludePatternOptions struct {
	Excludes            []string
	InsensitiveExcludes []string
	ExcludeFiles        []string
}

// Add registers the exclude flags on f.
func (opts *ExcludePatternOptions) Add(f *pflag.FlagSet) {
	f.StringArrayVarP(&opts.Excludes, "exclude", "e", nil, "exclude a `pattern` (can be specified multiple times)")
	f.StringArrayVar(&opts.InsensitiveExcludes, "iexclude", nil, "same as --exclude `pattern` but ignores the casing of filenames")
	f.StringArrayVar(&opts.ExcludeFiles, "exclude-file", nil, "read exclude patterns from a `file` (can be specified multiple times)")
}

// Empty returns true if no exclude flag was given.
func (opts *ExcludePatternOptions) Empty() bool {
	return len(opts.Excludes) == 0 && len(opts.InsensitiveExcludes) == 0 && len(opts.ExcludeFiles) == 0
}

// CollectPatterns validates all patterns and returns the matching reject
// functions.
func (opts ExcludePatternOptions) CollectPatterns(warnf func(msg string, args ...interface{})) ([]RejectByNameFunc, error) {
	excludes := append([]string(nil), opts.Excludes...)
	for _, filename := range opts.ExcludeFiles {
		lines, err := textfile.Lines(filename)
		if err != nil {
			return nil, errors.Fatalf("failed to read patterns from file %q: %v", filename, err)
		}
		excludes = append(excludes, lines...)
	}

	var fs []RejectByNameFunc
	if len(opts.InsensitiveExcludes) > 0 {
		if err := ValidatePatterns(opts.InsensitiveExcludes); err != nil {
			return nil, errors.Usagef("--iexclude: %s", err)
		}

		fs = append(fs, RejectByInsensitivePattern(opts.InsensitiveExcludes, warnf))
	}

	if len(excludes) > 0 {
		if err := ValidatePatterns(excludes); err != nil {
			return nil, errors.Usagef("--exclude: %s", err)
		}

		fs = append(fs, RejectByPattern(excludes, warnf))
	}
	return fs, nil
}
