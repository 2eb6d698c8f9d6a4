package filter

import (
	"path/filepath"
	"strings"

	"github.com/partar/partar/internal/errors"
)

// ErrBadString is returned when Match is called with the empty string as the
// second argument.
var ErrBadString = errors.New("filter.Match: string is empty")

// Pattern represents a preparsed filter pattern, split at the path separator.
type Pattern []string

func splitPath(str string) []string {
	// convert file path separator to '/'
	if filepath.Separator != '/' {
		str = strings.ReplaceAll(str, string(filepath.Separator), "/")
	}

	return strings.Split(str, "/")
}

// ParsePattern prepares a single pattern.
func ParsePattern(pattern string) Pattern {
	return splitPath(filepath.Clean(pattern))
}

// ParsePatterns prepares a list of patterns for use with List. Empty patterns
// are skipped.
func ParsePatterns(patterns []string) []Pattern {
	parsed := make([]Pattern, 0, len(patterns))
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		parsed = append(parsed, ParsePattern(pat))
	}
	return parsed
}

// ValidatePatterns returns an error listing every malformed pattern.
func ValidatePatterns(patterns []string) error {
	var invalid []string
	for _, pat := range ParsePatterns(patterns) {
		for _, part := range pat {
			if _, err := filepath.Match(part, ""); err != nil {
				invalid = append(invalid, strings.Join(pat, "/"))
				break
			}
		}
	}

	if len(invalid) > 0 {
		return errors.Errorf("invalid pattern(s) provided:\n%s", strings.Join(invalid, "\n"))
	}
	return nil
}

// Match returns true if str matches the pattern. When the pattern is
// malformed, filepath.ErrBadPattern is returned. The empty pattern matches
// everything, when str is the empty string ErrBadString is returned.
//
// Pattern can be a combination of patterns suitable for filepath.Match, joined
// by filepath.Separator. In addition a recursive wildcard '**' greedily
// matches an arbitrary number of intermediate directories.
func Match(pattern, str string) (matched bool, err error) {
	if pattern == "" {
		return true, nil
	}
	if str == "" {
		return false, ErrBadString
	}

	return match(ParsePattern(pattern), splitPath(str))
}

// List returns true if str matches one of the patterns.
func List(patterns []Pattern, str string) (matched bool, err error) {
	if len(patterns) == 0 {
		return false, nil
	}
	if str == "" {
		return false, ErrBadString
	}

	strs := splitPath(str)
	for _, pat := range patterns {
		m, err := match(pat, strs)
		if err != nil {
			return false, err
		}
		if m {
			return true, nil
		}
	}

	return false, nil
}

func doubleWildcard(pat Pattern) int {
	for i, item := range pat {
		if item == "**" {
			return i
		}
	}
	return -1
}

func match(pat Pattern, strs []string) (matched bool, err error) {
	if pos := doubleWildcard(pat); pos >= 0 {
		// expand '**' into zero or more single wildcards
		for n := 0; n <= len(strs)-len(pat)+1; n++ {
			expanded := make(Pattern, 0, len(pat)+n)
			expanded = append(expanded, pat[:pos]...)
			for i := 0; i < n; i++ {
				expanded = append(expanded, "*")
			}
			expanded = append(expanded, pat[pos+1:]...)

			matched, err := match(expanded, strs)
			if err != nil || matched {
				return matched, err
			}
		}

		return false, nil
	}

	if len(pat) == 0 && len(strs) == 0 {
		return true, nil
	}
	if len(pat) == 0 || len(pat) > len(strs) {
		return false, nil
	}

	// relative patterns may match at any depth, absolute ones only at the root
	maxOffset := len(strs) - len(pat)
	if pat[0] == "" {
		maxOffset = 0
	}

outer:
	for offset := maxOffset; offset >= 0; offset-- {
		for i := len(pat) - 1; i >= 0; i-- {
			ok, err := filepath.Match(pat[i], strs[offset+i])
			if err != nil {
				return false, errors.Wrap(err, "Match")
			}
			if !ok {
				continue outer
			}
		}

		return true, nil
	}

	return false, nil
}
