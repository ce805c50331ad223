// Package serve binds resolved route registrations to a chi router.
//
// It is the boundary between the resolution engine and the transport:
// per request it builds a fresh chain context, extracts path parameters,
// runs the composed chain, and writes the outcome as JSON. Websocket
// registrations are upgraded with gorilla/websocket and handed to the
// registered websocket handler without chain wrapping.
package serve

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dirroute/dirroute/pkg/middleware"
	"github.com/dirroute/dirroute/pkg/router"
)

// WebSocketHandler is the shape a websocket registration's handler must
// have: it owns the upgraded connection for the request's lifetime.
type WebSocketHandler func(conn *websocket.Conn, c *middleware.Ctx) error

// ErrorHandler renders a chain error to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Mounter configures how registrations are bound.
type Mounter struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	onError  ErrorHandler
}

// Option configures a Mounter.
type Option func(*Mounter)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mounter) { m.logger = logger }
}

// WithUpgrader overrides the websocket upgrader.
func WithUpgrader(u websocket.Upgrader) Option {
	return func(m *Mounter) { m.upgrader = u }
}

// WithErrorHandler overrides how chain errors are rendered.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Mounter) { m.onError = h }
}

// Mount binds every registration onto r. Websocket registrations whose
// handler is not a WebSocketHandler fail the mount.
func Mount(r chi.Router, regs []router.Registration, opts ...Option) error {
	m := &Mounter{
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		onError: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, reg := range regs {
		pattern, catchAll := chiPattern(reg.Path)

		if reg.WebSocketKind {
			ws, ok := reg.WebSocket.(WebSocketHandler)
			if !ok {
				if fn, fnOK := reg.WebSocket.(func(conn *websocket.Conn, c *middleware.Ctx) error); fnOK {
					ws, ok = WebSocketHandler(fn), true
				}
			}
			if !ok {
				return fmt.Errorf("serve: websocket handler for %s has unsupported type %T",
					reg.Path, reg.WebSocket)
			}
			r.Get(pattern, m.websocketHandler(reg, ws, catchAll))
			continue
		}

		r.MethodFunc(reg.Method, pattern, m.httpHandler(reg, catchAll))
	}
	return nil
}

// chiPattern converts a resolved path to a chi pattern. Catch-all
// parameters render as "{name:path}" and become chi's trailing wildcard;
// the parameter name is returned so its value can be read back.
func chiPattern(path string) (pattern, catchAll string) {
	open := strings.LastIndex(path, "{")
	if open == -1 || !strings.HasSuffix(path, ":path}") {
		return path, ""
	}
	name := path[open+1 : len(path)-len(":path}")]
	return path[:open] + "*", name
}

func (m *Mounter) requestCtx(reg router.Registration, catchAll string, r *http.Request) *middleware.Ctx {
	c := middleware.NewCtx(r.Context())
	c.Method = reg.Method
	c.Route = reg.Path
	c.Path = r.URL.Path
	c.Request = r
	c.Params = make(map[string]string, len(reg.Params))
	for _, name := range reg.Params {
		if name == catchAll {
			c.Params[name] = chi.URLParam(r, "*")
			continue
		}
		c.Params[name] = chi.URLParam(r, name)
	}
	return c
}

func (m *Mounter) httpHandler(reg router.Registration, catchAll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := m.requestCtx(reg, catchAll, r)

		outcome, err := middleware.Compose(c, reg.Chain, reg.Handler)
		if err != nil {
			m.logger.Error("route handler failed",
				"method", reg.Method, "route", reg.Path, "error", err)
			m.onError(w, r, err)
			return
		}

		status := reg.StatusCode
		if outcome.Halted() && outcome.Status != 0 {
			status = outcome.Status
		}
		writeJSON(w, status, outcome.Response)
	}
}

func (m *Mounter) websocketHandler(reg router.Registration, ws WebSocketHandler, catchAll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := m.upgrader.Upgrade(w, r, nil)
		if err != nil {
			m.logger.Error("websocket upgrade failed",
				"route", reg.Path, "error", err)
			return
		}
		defer conn.Close()

		c := m.requestCtx(reg, catchAll, r)
		if err := ws(conn, c); err != nil {
			m.logger.Error("websocket handler failed",
				"route", reg.Path, "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("response encoding failed", "error", err)
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
