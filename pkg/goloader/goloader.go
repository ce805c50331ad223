// Package goloader inspects route source files and verifies that what a
// file declares matches what the application registered for it.
//
// A route file's contract is a fixed manifest: exported functions named
// after HTTP methods (or WebSocket), an optional exported Middleware
// declaration, and optional Tags/Summary/Deprecated metadata. Any other
// exported name is a contract violation, so helpers must stay unexported.
package goloader

import (
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	"github.com/dirroute/dirroute/internal/errors"
	"github.com/dirroute/dirroute/pkg/handler"
	"github.com/dirroute/dirroute/pkg/router"
)

// metadataNames are the exported non-handler declarations a route file may
// carry.
var metadataNames = map[string]bool{
	"Middleware": true,
	"Tags":       true,
	"Summary":    true,
	"Deprecated": true,
}

// Manifest is what one source file declares, extracted from its AST.
type Manifest struct {
	// Package is the file's package name.
	Package string

	// Methods holds the declared method names, normalized to lower case
	// and sorted.
	Methods []string

	// HasMiddleware reports an exported Middleware func or var.
	HasMiddleware bool

	// Invalid lists exported declarations that are neither method
	// handlers nor recognized metadata.
	Invalid []string
}

// Inspect parses file and extracts its manifest. Parse failures are loader
// errors naming the file.
func Inspect(file string) (*Manifest, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
	if err != nil {
		return nil, errors.New(errors.CodeLoader,
			"Cannot parse route source: %v", err).
			Wrap(err).
			WithFile(file)
	}

	m := &Manifest{Package: f.Name.Name}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Name == nil || !d.Name.IsExported() || d.Recv != nil {
				continue
			}
			m.record(d.Name.Name)

		case *ast.GenDecl:
			switch d.Tok {
			case token.VAR, token.CONST:
				for _, spec := range d.Specs {
					vs, ok := spec.(*ast.ValueSpec)
					if !ok {
						continue
					}
					for _, ident := range vs.Names {
						if ident.IsExported() {
							m.record(ident.Name)
						}
					}
				}
			case token.TYPE:
				// A type can never be a handler or metadata value, so any
				// exported one is a violation outright.
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					if ts.Name != nil && ts.Name.IsExported() {
						m.Invalid = append(m.Invalid, ts.Name.Name)
					}
				}
			}
		}
	}

	sort.Strings(m.Methods)
	return m, nil
}

func (m *Manifest) record(name string) {
	if lower, ok := handler.ValidMethod(name); ok {
		m.Methods = append(m.Methods, lower)
		return
	}
	if name == "Middleware" {
		m.HasMiddleware = true
		return
	}
	if metadataNames[name] {
		return
	}
	m.Invalid = append(m.Invalid, name)
}

func invalidExportError(file, name string) error {
	return errors.New(errors.CodeLoader,
		"Unexpected exported declaration %q in route file", name).
		WithDetail("Route files may export only method handlers (%s), Middleware, Tags, Summary and Deprecated",
			strings.Join(handler.MethodNames(), ", ")).
		WithSuggestion("Unexport helpers: rename them to start with a lower-case letter or an underscore").
		WithFile(file)
}

// Loader wraps an inner loader and cross-checks every load against the
// source file's manifest. A file declaring handlers the application never
// registered, or registrations with no matching declaration, fails the
// resolution.
type Loader struct {
	inner router.Loader
}

// New wraps inner with manifest verification.
func New(inner router.Loader) *Loader {
	return &Loader{inner: inner}
}

// LoadHandlers verifies the file's manifest and returns the registered
// handler set.
func (l *Loader) LoadHandlers(file string) (*handler.Set, error) {
	m, err := Inspect(file)
	if err != nil {
		return nil, err
	}
	if len(m.Invalid) > 0 {
		return nil, invalidExportError(file, m.Invalid[0])
	}

	set, err := l.inner.LoadHandlers(file)
	if err != nil {
		return nil, err
	}
	if set == nil {
		set = &handler.Set{}
	}

	declared := make(map[string]bool, len(m.Methods))
	for _, method := range m.Methods {
		declared[method] = true
		if _, ok := set.Handlers[method]; !ok {
			return nil, errors.New(errors.CodeLoader,
				"Route file declares %s but no handler was registered for it",
				strings.ToUpper(method)).
				WithFile(file)
		}
	}
	for method := range set.Handlers {
		if !declared[method] {
			return nil, errors.New(errors.CodeLoader,
				"Handler registered for %s but the route file does not declare it",
				strings.ToUpper(method)).
				WithFile(file)
		}
	}
	return set, nil
}

// LoadMiddleware verifies the middleware file declares an exported
// Middleware value and returns the registered declaration.
func (l *Loader) LoadMiddleware(file string) (any, error) {
	m, err := Inspect(file)
	if err != nil {
		return nil, err
	}
	decl, err := l.inner.LoadMiddleware(file)
	if err != nil {
		return nil, err
	}
	if !m.HasMiddleware && decl != nil {
		return nil, errors.New(errors.CodeLoader,
			"Middleware registered but the file does not declare an exported Middleware value").
			WithFile(file)
	}
	if m.HasMiddleware && decl == nil {
		return nil, errors.New(errors.CodeLoader,
			"File declares Middleware but none was registered for it").
			WithFile(file)
	}
	return decl, nil
}
