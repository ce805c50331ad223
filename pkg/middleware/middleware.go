// Package middleware defines the chain contract for resolved routes and
// composes ordered middleware chains.
//
// A chain is assembled once at resolve time from three tiers: directory
// middleware (outermost ancestor first), file-level middleware, then
// handler-level middleware. At request time the chain executes first to
// last on the way in; a middleware may short-circuit by returning an
// Outcome without invoking its continuation, which is an expected
// control-flow result, not an error.
package middleware

import (
	"context"
	"net/http"
)

// Ctx carries one request through a middleware chain. A fresh Ctx is built
// per request; request-scoped data lives only here, never in chain-level or
// package-level state, so concurrent invocations are fully isolated.
type Ctx struct {
	// Method is the HTTP method, or "WEBSOCKET" for websocket requests.
	Method string

	// Route is the registered route pattern (e.g., "/users/{id}").
	Route string

	// Path is the concrete request path.
	Path string

	// Params are the extracted path parameters.
	Params map[string]string

	// Request is the underlying HTTP request, when serving over HTTP.
	Request *http.Request

	ctx    context.Context
	values map[any]any
}

// NewCtx creates a request context for one chain execution.
func NewCtx(ctx context.Context) *Ctx {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Ctx{ctx: ctx, values: make(map[any]any)}
}

// Context returns the underlying context.Context.
func (c *Ctx) Context() context.Context {
	return c.ctx
}

// WithContext replaces the underlying context.Context.
func (c *Ctx) WithContext(ctx context.Context) {
	c.ctx = ctx
}

// Set stores a request-scoped value.
func (c *Ctx) Set(key, value any) {
	c.values[key] = value
}

// Get reads a request-scoped value.
func (c *Ctx) Get(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Param returns a path parameter by name.
func (c *Ctx) Param(name string) string {
	return c.Params[name]
}

// Outcome is the tagged result of a chain step: either continue past this
// point (the value the inner chain produced) or a short-circuit response
// produced without invoking the continuation.
type Outcome struct {
	halted   bool
	Response any

	// Status is an optional HTTP status override for the response.
	Status int
}

// Continue wraps a value produced by the inner chain or handler.
func Continue(response any) Outcome {
	return Outcome{Response: response}
}

// ShortCircuit produces a response without running the rest of the chain.
func ShortCircuit(status int, response any) Outcome {
	return Outcome{halted: true, Status: status, Response: response}
}

// Halted reports whether a middleware stopped the chain early.
func (o Outcome) Halted() bool {
	return o.halted
}

// Next invokes the rest of the chain.
type Next func(c *Ctx) (Outcome, error)

// Middleware processes a request before it reaches the handler.
type Middleware interface {
	// Handle processes the request and optionally calls next. Returning
	// without calling next short-circuits the chain.
	Handle(c *Ctx, next Next) (Outcome, error)
}

// Func is a function adapter for Middleware.
type Func func(c *Ctx, next Next) (Outcome, error)

// Handle implements Middleware.
func (f Func) Handle(c *Ctx, next Next) (Outcome, error) {
	return f(c, next)
}

// Handler is the innermost step of a chain.
type Handler func(c *Ctx) (Outcome, error)

// Compose executes handler wrapped by mw. The first middleware is the
// outermost wrapper: it runs first on the way in and last on the way out.
func Compose(c *Ctx, mw []Middleware, handler Handler) (Outcome, error) {
	if len(mw) == 0 {
		return handler(c)
	}

	// Build the chain from end to start.
	chain := Next(handler)
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := chain
		chain = func(c *Ctx) (Outcome, error) {
			return m.Handle(c, next)
		}
	}

	return chain(c)
}

// Join creates a middleware that runs several middleware in order.
func Join(mw ...Middleware) Middleware {
	return Func(func(c *Ctx, next Next) (Outcome, error) {
		return Compose(c, mw, Handler(next))
	})
}

// Skip runs mw unless the condition holds.
func Skip(condition func(c *Ctx) bool, mw Middleware) Middleware {
	return Func(func(c *Ctx, next Next) (Outcome, error) {
		if condition(c) {
			return next(c)
		}
		return mw.Handle(c, next)
	})
}

// Only runs mw only when the condition holds.
func Only(condition func(c *Ctx) bool, mw Middleware) Middleware {
	return Func(func(c *Ctx, next Next) (Outcome, error) {
		if !condition(c) {
			return next(c)
		}
		return mw.Handle(c, next)
	})
}
