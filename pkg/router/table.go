package router

import (
	"sort"

	"github.com/dirroute/dirroute/internal/errors"
)

// sortRoutes orders routes for registration priority: fewer parameters
// first, then fewer segments, then lexicographic path. More specific and
// static routes come before parametric ones, and the order is a pure
// function of the route set, never of filesystem iteration.
func sortRoutes(routes []ConcreteRoute) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if len(a.Params) != len(b.Params) {
			return len(a.Params) < len(b.Params)
		}
		if len(a.Segments) != len(b.Segments) {
			return len(a.Segments) < len(b.Segments)
		}
		return a.Path < b.Path
	})
}

type routeKey struct {
	path   string
	method string
}

// table tracks claimed (path, method) pairs across the whole resolution
// pass. The conflict check is global: two files connected only by a group
// segment collapsing to the same URL still collide.
type table struct {
	claimed map[routeKey]string
}

func newTable() *table {
	return &table{claimed: make(map[routeKey]string)}
}

// claim records a (path, method) pair for file, failing with a duplicate
// conflict naming both files if the pair is already taken.
func (t *table) claim(path, method, file string) error {
	key := routeKey{path: path, method: method}
	if prev, ok := t.claimed[key]; ok {
		return errors.New(errors.CodeDuplicateRoute,
			"Duplicate route %s %s", method, path).
			WithDetail("Defined in %s and %s", prev, file).
			WithFile(file)
	}
	t.claimed[key] = file
	return nil
}
