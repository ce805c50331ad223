// Package segment parses route-tree directory names into typed path segments.
//
// Directory names follow a small grammar:
//
//	users       static segment, appears in the URL as-is
//	[id]        dynamic parameter -> {id}
//	[[version]] optional parameter, expanded into present/absent variants
//	[...path]   catch-all parameter, must be the last segment
//	(admin)     route group, organizes files without touching the URL
package segment

import (
	"regexp"

	"github.com/dirroute/dirroute/internal/errors"
)

// Kind is the type of a URL path segment.
type Kind int

const (
	Static Kind = iota
	Dynamic
	Optional
	CatchAll
	Group
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	case Optional:
		return "optional"
	case CatchAll:
		return "catch-all"
	case Group:
		return "group"
	default:
		return "unknown"
	}
}

// Segment is a parsed path segment. Immutable value type.
type Segment struct {
	// Name is the segment or parameter name without any notation.
	Name string

	// Kind is the segment type.
	Kind Kind

	// Original is the raw directory-name token this segment was parsed from.
	Original string
}

// IsParameter reports whether this segment captures a path parameter.
func (s Segment) IsParameter() bool {
	return s.Kind == Dynamic || s.Kind == CatchAll || s.Kind == Optional
}

// Render returns the directory-name token for this segment. It round-trips
// with Parse for every valid segment.
func (s Segment) Render() string {
	switch s.Kind {
	case Dynamic:
		return "[" + s.Name + "]"
	case Optional:
		return "[[" + s.Name + "]]"
	case CatchAll:
		return "[..." + s.Name + "]"
	case Group:
		return "(" + s.Name + ")"
	default:
		return s.Name
	}
}

// URLPart returns the URL rendering of this segment, or "" for groups,
// which never appear in a URL.
func (s Segment) URLPart() string {
	switch s.Kind {
	case Static:
		return s.Name
	case Dynamic, Optional:
		return "{" + s.Name + "}"
	case CatchAll:
		return "{" + s.Name + ":path}"
	default:
		return ""
	}
}

// Parameter names follow the identifier grammar; static and group names use
// the lowercase-with-hyphen/underscore grammar.
var (
	optionalPattern = regexp.MustCompile(`^\[\[([a-zA-Z_][a-zA-Z0-9_]*)\]\]$`)
	catchAllPattern = regexp.MustCompile(`^\[\.\.\.([a-zA-Z_][a-zA-Z0-9_]*)\]$`)
	dynamicPattern  = regexp.MustCompile(`^\[([a-zA-Z_][a-zA-Z0-9_]*)\]$`)
	groupPattern    = regexp.MustCompile(`^\(([a-z][a-z0-9_-]*)\)$`)
	staticPattern   = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// Parse converts one directory-name token into a Segment.
//
// Shapes are checked in precedence order: [[name]] optional, [...name]
// catch-all, [name] dynamic, (name) group, then the static grammar. Any
// other shape fails with a path-syntax error naming the token.
func Parse(token string) (Segment, error) {
	if token == "" {
		return Segment{}, errors.New(errors.CodePathSyntax, "Empty path segment")
	}

	if m := optionalPattern.FindStringSubmatch(token); m != nil {
		return Segment{Name: m[1], Kind: Optional, Original: token}, nil
	}
	if m := catchAllPattern.FindStringSubmatch(token); m != nil {
		return Segment{Name: m[1], Kind: CatchAll, Original: token}, nil
	}
	if m := dynamicPattern.FindStringSubmatch(token); m != nil {
		return Segment{Name: m[1], Kind: Dynamic, Original: token}, nil
	}
	if m := groupPattern.FindStringSubmatch(token); m != nil {
		return Segment{Name: m[1], Kind: Group, Original: token}, nil
	}
	if staticPattern.MatchString(token) {
		return Segment{Name: token, Kind: Static, Original: token}, nil
	}

	return Segment{}, errors.New(errors.CodePathSyntax,
		"Invalid path segment %q", token)
}

// ParseChain parses an ordered list of directory names into segments.
//
// Fails on the first invalid token, and rejects any segment that follows a
// catch-all: a catch-all consumes the rest of the path and must be last.
func ParseChain(parts []string) ([]Segment, error) {
	segments := make([]Segment, 0, len(parts))
	catchAllSeen := false

	for _, part := range parts {
		if catchAllSeen {
			return nil, errors.New(errors.CodePathSyntax,
				"Catch-all parameter must be the last path segment, found %q after it", part).
				WithSuggestion("Move the [...param] directory to the end of the chain.")
		}

		seg, err := Parse(part)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)

		if seg.Kind == CatchAll {
			catchAllSeen = true
		}
	}

	return segments, nil
}

// Path renders segments to a URL path with a leading slash. Group segments
// are omitted; a chain with nothing left renders "/".
func Path(segments []Segment) string {
	path := ""
	for _, seg := range segments {
		if part := seg.URLPart(); part != "" {
			path += "/" + part
		}
	}
	if path == "" {
		return "/"
	}
	return path
}

// ParameterNames returns the ordered parameter names in a chain.
func ParameterNames(segments []Segment) []string {
	var names []string
	for _, seg := range segments {
		if seg.IsParameter() {
			names = append(names, seg.Name)
		}
	}
	return names
}
