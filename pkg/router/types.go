// Package router resolves a scanned route tree into conflict-free route
// registrations, each carrying its composed middleware chain.
//
// Resolution is a single synchronous pass: validate filters, scan, expand
// optional-parameter variants, prune by filter, resolve middleware for the
// active directories only, load handlers fail-fast, detect duplicates, and
// assemble the final ordered registrations. Everything it builds is written
// once and frozen; re-resolution is a fresh pass.
package router

import (
	"github.com/dirroute/dirroute/pkg/middleware"
	"github.com/dirroute/dirroute/pkg/segment"
)

// ConcreteRoute is one fully resolved URL path variant. Group segments are
// already removed from Segments. Several routes may share a File when they
// are optional-parameter variants of one candidate.
type ConcreteRoute struct {
	// Path is the rendered URL path, "/" rooted, before any prefix.
	Path string

	// Segments is the variant's segment sequence, groups omitted.
	Segments []segment.Segment

	// Params holds the parameter names in path order.
	Params []string

	// File is the absolute path of the defining route file.
	File string

	// RelDir is the posix-relative directory of the route file.
	RelDir string
}

// Registration is the engine's final output unit: one method on one path,
// bound to a handler and its composed middleware chain.
type Registration struct {
	// Method is the upper-case HTTP method, or "WEBSOCKET".
	Method string

	// Path is the final URL path, prefix included.
	Path string

	// File is the absolute path of the defining route file.
	File string

	// RelDir is the posix-relative directory of the route file.
	RelDir string

	// Params holds the parameter names in path order.
	Params []string

	// Chain is the composed middleware in literal invocation order:
	// directory ancestors root-first, then file-level, then handler-level.
	// Always empty for websocket registrations.
	Chain []middleware.Middleware

	// Handler is the innermost handler func, nil for websocket
	// registrations.
	Handler middleware.Handler

	// WebSocket is the opaque websocket handler, nil for HTTP
	// registrations.
	WebSocket any

	// WebSocketKind reports whether this registration is websocket-kind.
	WebSocketKind bool

	// Tags, Summary and Deprecated are route metadata for documentation
	// surfaces.
	Tags       []string
	Summary    string
	Deprecated bool

	// StatusCode is the success status the serving layer should use.
	StatusCode int
}

// defaultStatusCodes maps methods whose conventional success status is not
// 200.
var defaultStatusCodes = map[string]int{
	"post":   201,
	"delete": 204,
}

// DefaultStatusCode returns the conventional success status for a
// lower-case method name.
func DefaultStatusCode(method string) int {
	if code, ok := defaultStatusCodes[method]; ok {
		return code
	}
	return 200
}
