// Package registry is an in-process handler loader: applications register
// their handlers, middleware and metadata against relative route
// directories, and the registry serves them to the resolver.
//
// Registration happens at init time, before Resolve runs; the registry is
// not safe for concurrent mutation but is safe for concurrent reads once
// resolution starts.
package registry

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dirroute/dirroute/pkg/handler"
)

// Registry maps posix-relative route directories ("." for the root) to the
// handler sets and middleware their files declare. It implements the
// resolver's Loader interface.
type Registry struct {
	root string
	sets map[string]*handler.Set
	mw   map[string]any
}

// New creates a registry serving the route tree rooted at root.
func New(root string) *Registry {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		resolved = root
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		abs = resolved
	}
	return &Registry{
		root: abs,
		sets: make(map[string]*handler.Set),
		mw:   make(map[string]any),
	}
}

// Handle registers a handler config for one method under dir. The method
// name is normalized to lower case; unknown methods panic, since
// registration is a programming-time act.
func (r *Registry) Handle(dir, method string, cfg handler.Config) *Registry {
	norm, ok := handler.ValidMethod(method)
	if !ok {
		panic(fmt.Sprintf("registry: unknown method %q (valid: %s)",
			method, strings.Join(handler.MethodNames(), ", ")))
	}
	r.set(dir).Handlers[norm] = cfg
	return r
}

// Middleware registers the raw middleware declaration of dir's middleware
// file. The declaration is validated later, during resolution.
func (r *Registry) Middleware(dir string, decl any) *Registry {
	r.mw[normDir(dir)] = decl
	return r
}

// FileMiddleware registers the file-level middleware declaration of dir's
// route file.
func (r *Registry) FileMiddleware(dir string, decl any) *Registry {
	r.set(dir).Middleware = decl
	return r
}

// Meta attaches file-level metadata to dir's route file.
func (r *Registry) Meta(dir string, meta handler.Metadata) *Registry {
	r.set(dir).Metadata = meta
	return r
}

// LoadHandlers returns the handler set registered for the route file's
// directory. Unregistered directories yield an empty set, which the
// resolver skips.
func (r *Registry) LoadHandlers(file string) (*handler.Set, error) {
	set, ok := r.sets[r.fileDir(file)]
	if !ok {
		return &handler.Set{}, nil
	}
	return set, nil
}

// LoadMiddleware returns the middleware declaration registered for the
// middleware file's directory.
func (r *Registry) LoadMiddleware(file string) (any, error) {
	return r.mw[r.fileDir(file)], nil
}

func (r *Registry) set(dir string) *handler.Set {
	key := normDir(dir)
	s, ok := r.sets[key]
	if !ok {
		s = &handler.Set{Handlers: make(map[string]handler.Config)}
		r.sets[key] = s
	}
	return s
}

// fileDir converts an absolute file path back to the posix-relative
// directory key it was registered under.
func (r *Registry) fileDir(file string) string {
	resolved, err := filepath.EvalSymlinks(file)
	if err != nil {
		resolved = file
	}
	rel, err := filepath.Rel(r.root, filepath.Dir(resolved))
	if err != nil {
		return normDir(filepath.Dir(file))
	}
	return normDir(filepath.ToSlash(rel))
}

func normDir(dir string) string {
	dir = strings.Trim(filepath.ToSlash(dir), "/")
	if dir == "" {
		return "."
	}
	return dir
}
