package middleware

import (
	"strings"

	"github.com/dirroute/dirroute/internal/errors"
)

// Normalize converts a raw middleware declaration into an ordered sequence.
//
// Accepted shapes: nil (empty sequence), a single Middleware or
// chain-shaped func, or a slice of either. Validation happens here, at
// resolve time, never per request: a handler-shaped func that does not
// accept a continuation fails with a contract violation, as does any value
// that is not a middleware at all. Errors name the file and the offending
// index.
func Normalize(decl any, file string) ([]Middleware, error) {
	if decl == nil {
		return nil, nil
	}

	switch v := decl.(type) {
	case Middleware:
		return []Middleware{v}, nil
	case func(c *Ctx, next Next) (Outcome, error):
		return []Middleware{Func(v)}, nil
	case []Middleware:
		for i, m := range v {
			if m == nil {
				return nil, contractViolation(file, i, "nil entry is not a middleware")
			}
		}
		return append([]Middleware(nil), v...), nil
	case []any:
		out := make([]Middleware, 0, len(v))
		for i, entry := range v {
			m, err := normalizeEntry(entry, file, i)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	case func(c *Ctx) (Outcome, error), func(c *Ctx) error:
		return nil, contractViolation(file, 0, "must accept a continuation")
	default:
		return nil, contractViolation(file, 0, "not a middleware")
	}
}

func normalizeEntry(entry any, file string, index int) (Middleware, error) {
	switch v := entry.(type) {
	case Middleware:
		return v, nil
	case func(c *Ctx, next Next) (Outcome, error):
		return Func(v), nil
	case func(c *Ctx) (Outcome, error), func(c *Ctx) error:
		return nil, contractViolation(file, index, "must accept a continuation")
	case nil:
		return nil, contractViolation(file, index, "nil entry is not a middleware")
	default:
		return nil, contractViolation(file, index, "not a middleware")
	}
}

func contractViolation(file string, index int, reason string) error {
	return errors.New(errors.CodeMiddlewareContract,
		"Invalid middleware at index %d: %s", index, reason).
		WithFile(file)
}

// Directory maps a posix-relative directory ("." for the root) to its
// ordered middleware.
type Directory map[string][]Middleware

// CollectDirectory gathers the middleware applicable to a route directory,
// walking from the root down to relDir. The order is a pure function of
// directory depth: the root's middleware comes first, the immediate
// directory's last.
func CollectDirectory(dir Directory, relDir string) []Middleware {
	var out []Middleware

	out = append(out, dir["."]...)

	if relDir == "." || relDir == "" {
		return out
	}

	current := ""
	for _, part := range strings.Split(relDir, "/") {
		if current == "" {
			current = part
		} else {
			current += "/" + part
		}
		out = append(out, dir[current]...)
	}

	return out
}

// BuildChain concatenates the three middleware tiers for one concrete
// route: directory ancestors (root first), then file-level, then
// handler-level. The result is the literal invocation order.
func BuildChain(dirMW, fileMW, handlerMW []Middleware) []Middleware {
	chain := make([]Middleware, 0, len(dirMW)+len(fileMW)+len(handlerMW))
	chain = append(chain, dirMW...)
	chain = append(chain, fileMW...)
	chain = append(chain, handlerMW...)
	return chain
}
