// Package handler defines the handler configuration surface the engine
// consumes: per-method handler configs with attached middleware and
// metadata, grouped into the per-file set a loader returns.
package handler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dirroute/dirroute/pkg/middleware"
)

// Methods that a route file may declare, lower-case. "websocket" is the
// non-HTTP kind; its registrations are never middleware-wrapped.
var Methods = map[string]bool{
	"get":       true,
	"post":      true,
	"put":       true,
	"patch":     true,
	"delete":    true,
	"head":      true,
	"options":   true,
	"websocket": true,
}

// MethodNames returns the allowed method names, sorted.
func MethodNames() []string {
	names := make([]string, 0, len(Methods))
	for name := range Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Func is an HTTP-kind handler: the innermost step of a chain.
type Func = middleware.Handler

// Config is one configured handler with its middleware and metadata.
// Immutable once built.
type Config struct {
	handler    Func
	middleware []middleware.Middleware
	tags       []string
	summary    string
	deprecated bool
	statusCode int
	websocket  any
}

// Option configures a handler during construction.
type Option func(*Config) error

// WithMiddleware attaches handler-level middleware. The declaration is
// normalized and contract-checked at build time: a single middleware, a
// slice, or nil are accepted.
func WithMiddleware(decl any) Option {
	return func(c *Config) error {
		mw, err := middleware.Normalize(decl, "")
		if err != nil {
			return err
		}
		c.middleware = mw
		return nil
	}
}

// WithTags sets the route tags.
func WithTags(tags ...string) Option {
	return func(c *Config) error {
		c.tags = append([]string(nil), tags...)
		return nil
	}
}

// WithSummary sets the route summary.
func WithSummary(summary string) Option {
	return func(c *Config) error {
		c.summary = summary
		return nil
	}
}

// Deprecated marks the handler deprecated.
func Deprecated() Option {
	return func(c *Config) error {
		c.deprecated = true
		return nil
	}
}

// WithStatusCode overrides the success status code.
func WithStatusCode(code int) Option {
	return func(c *Config) error {
		c.statusCode = code
		return nil
	}
}

// New builds an immutable handler config.
func New(fn Func, opts ...Option) (Config, error) {
	if fn == nil {
		return Config{}, fmt.Errorf("handler func must not be nil")
	}
	c := Config{handler: fn}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

// MustNew is New that panics on error, for static registration tables.
func MustNew(fn Func, opts ...Option) Config {
	c, err := New(fn, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewWebSocket builds a config around a websocket-kind handler. The handler
// value is opaque to the engine; the serving layer decides how to invoke it.
func NewWebSocket(ws any, opts ...Option) (Config, error) {
	if ws == nil {
		return Config{}, fmt.Errorf("websocket handler must not be nil")
	}
	c := Config{websocket: ws}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

// Handler returns the HTTP handler func, nil for websocket configs.
func (c Config) Handler() Func { return c.handler }

// WebSocket returns the websocket handler value, nil for HTTP configs.
func (c Config) WebSocket() any { return c.websocket }

// IsWebSocket reports whether this is a websocket-kind handler.
func (c Config) IsWebSocket() bool { return c.websocket != nil }

// Middleware returns the handler-level middleware.
func (c Config) Middleware() []middleware.Middleware { return c.middleware }

// Tags returns the route tags.
func (c Config) Tags() []string { return c.tags }

// Summary returns the route summary.
func (c Config) Summary() string { return c.summary }

// IsDeprecated reports the deprecated flag.
func (c Config) IsDeprecated() bool { return c.deprecated }

// StatusCode returns the configured status override, 0 when unset.
func (c Config) StatusCode() int { return c.statusCode }

// Metadata is free-form route metadata a loader may attach at file level.
type Metadata struct {
	Tags       []string
	Summary    string
	Deprecated bool
}

// Set is everything a loader extracts from one route file: handlers keyed
// by lower-case method name, file-level middleware (raw declaration, still
// to be normalized), and metadata.
type Set struct {
	Handlers   map[string]Config
	Middleware any
	Metadata   Metadata
}

// Empty reports whether the set declares no handlers.
func (s *Set) Empty() bool {
	return s == nil || len(s.Handlers) == 0
}

// ValidMethod reports whether name is an allowed method key and returns it
// normalized.
func ValidMethod(name string) (string, bool) {
	lower := strings.ToLower(name)
	return lower, Methods[lower]
}
