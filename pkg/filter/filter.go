// Package filter scopes a resolved route set with include/exclude patterns
// and computes which directories stay active afterwards.
//
// Filtering runs before any handler or middleware source is materialized:
// a pruned subtree's code is never loaded, which is an isolation property,
// not just an optimization.
package filter

import (
	"regexp"
	"strings"

	"github.com/dirroute/dirroute/internal/errors"
)

// Config holds the mutually exclusive include/exclude pattern lists.
type Config struct {
	// Include keeps only routes whose relative directory matches.
	Include []string

	// Exclude removes routes whose relative directory matches.
	Exclude []string
}

// Validate rejects configurations with both include and exclude non-empty.
// Called before any scanning occurs.
func (c Config) Validate() error {
	if len(c.Include) > 0 && len(c.Exclude) > 0 {
		return errors.New(errors.CodeFilterConflict,
			"Cannot specify both include and exclude filters: include=%v, exclude=%v",
			c.Include, c.Exclude)
	}
	return nil
}

// Empty reports whether no filtering is configured.
func (c Config) Empty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0
}

// Matches reports whether a posix-normalized relative directory matches the
// configured patterns' semantics for retention.
//
// Two matching modes per pattern: patterns containing glob metacharacters
// (*, ?, [) match against the full relative path; bare names match as a
// path-segment membership test, so "users" matches "api/users/[id]" and a
// group name matches its "(name)" segment.
func matchesAny(relDir string, patterns []string) bool {
	for _, pattern := range patterns {
		if hasGlobChars(pattern) {
			if matchGlob(pattern, relDir) {
				return true
			}
			continue
		}
		for _, part := range splitRel(relDir) {
			if part == pattern {
				return true
			}
			// A group segment matches its bare name.
			if strings.HasPrefix(part, "(") && strings.HasSuffix(part, ")") &&
				part[1:len(part)-1] == pattern {
				return true
			}
		}
	}
	return false
}

func hasGlobChars(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// matchGlob matches a glob pattern against the full relative path. The
// wildcards cross path separators, so "api/*" keeps "api/v1/users" too.
func matchGlob(pattern, relDir string) bool {
	re, err := globRegexp(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(relDir)
}

// globRegexp translates a glob pattern to an anchored regexp: "*" becomes
// ".*", "?" becomes ".", and "[...]" classes are kept ("[!...]" negates).
func globRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch ch := pattern[i]; ch {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			j := i + 1
			if j < len(pattern) && (pattern[j] == '!' || pattern[j] == '^') {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				// Unterminated class matches a literal bracket.
				b.WriteString(regexp.QuoteMeta("["))
				continue
			}
			class := pattern[i+1 : j]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			class = strings.ReplaceAll(class, `\`, `\\`)
			b.WriteString("[" + class + "]")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func splitRel(relDir string) []string {
	if relDir == "." || relDir == "" {
		return nil
	}
	return strings.Split(relDir, "/")
}

// Keep reports whether a route with the given relative directory survives
// the filter. Callers must Validate first.
func (c Config) Keep(relDir string) bool {
	switch {
	case len(c.Include) > 0:
		return matchesAny(relDir, c.Include)
	case len(c.Exclude) > 0:
		return !matchesAny(relDir, c.Exclude)
	default:
		return true
	}
}

// ActiveDirectories returns every ancestor directory (the root included) of
// the given surviving route directories. Middleware declared outside this
// set must never be resolved or have its source loaded; when no route
// survives, nothing is active, the root included.
func ActiveDirectories(relDirs []string) map[string]bool {
	active := make(map[string]bool, len(relDirs))

	for _, relDir := range relDirs {
		active["."] = true
		current := ""
		for _, part := range splitRel(relDir) {
			if current == "" {
				current = part
			} else {
				current += "/" + part
			}
			active[current] = true
		}
	}

	return active
}
