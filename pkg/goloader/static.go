package goloader

import (
	"github.com/dirroute/dirroute/pkg/handler"
	"github.com/dirroute/dirroute/pkg/middleware"
)

// StaticLoader synthesizes handler sets from source manifests alone, with
// placeholder handlers. It lets tooling resolve and inspect a route tree
// without the application's registrations being linked in; the resulting
// registrations describe the tree but cannot serve requests.
type StaticLoader struct{}

// Static returns a manifest-only loader.
func Static() *StaticLoader {
	return &StaticLoader{}
}

// LoadHandlers builds a placeholder handler set from the file's manifest.
func (l *StaticLoader) LoadHandlers(file string) (*handler.Set, error) {
	m, err := Inspect(file)
	if err != nil {
		return nil, err
	}
	if len(m.Invalid) > 0 {
		return nil, invalidExportError(file, m.Invalid[0])
	}

	set := &handler.Set{Handlers: make(map[string]handler.Config, len(m.Methods))}
	for _, method := range m.Methods {
		if method == "websocket" {
			cfg, err := handler.NewWebSocket(placeholderWebSocket{})
			if err != nil {
				return nil, err
			}
			set.Handlers[method] = cfg
			continue
		}
		set.Handlers[method] = handler.MustNew(placeholderHandler)
	}
	if m.HasMiddleware {
		set.Middleware = placeholderMiddleware()
	}
	return set, nil
}

// LoadMiddleware returns a placeholder declaration when the file declares
// one, so chain shapes resolve correctly.
func (l *StaticLoader) LoadMiddleware(file string) (any, error) {
	m, err := Inspect(file)
	if err != nil {
		return nil, err
	}
	if !m.HasMiddleware {
		return nil, nil
	}
	return placeholderMiddleware(), nil
}

type placeholderWebSocket struct{}

func placeholderHandler(c *middleware.Ctx) (middleware.Outcome, error) {
	return middleware.Continue(nil), nil
}

func placeholderMiddleware() middleware.Middleware {
	return middleware.Func(func(c *middleware.Ctx, next middleware.Next) (middleware.Outcome, error) {
		return next(c)
	})
}
