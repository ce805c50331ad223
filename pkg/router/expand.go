package router

import (
	"github.com/dirroute/dirroute/pkg/scanner"
	"github.com/dirroute/dirroute/pkg/segment"
)

// Expand turns one route candidate into all of its concrete URL variants.
//
// A chain with n optional segments yields exactly 2^n routes, one per
// inclusion bitmask, in ascending bitmask order. Group segments never
// reach the output. A chain left empty after group removal renders as "/".
func Expand(c scanner.Candidate) []ConcreteRoute {
	var optional []int
	for i, s := range c.Segments {
		if s.Kind == segment.Optional {
			optional = append(optional, i)
		}
	}

	if len(optional) == 0 {
		return []ConcreteRoute{makeRoute(c, c.Segments)}
	}

	routes := make([]ConcreteRoute, 0, 1<<len(optional))
	for mask := 0; mask < 1<<len(optional); mask++ {
		include := make(map[int]bool, len(optional))
		for bit, idx := range optional {
			if mask&(1<<bit) != 0 {
				include[idx] = true
			}
		}

		variant := make([]segment.Segment, 0, len(c.Segments))
		for i, s := range c.Segments {
			if s.Kind == segment.Optional && !include[i] {
				continue
			}
			variant = append(variant, s)
		}
		routes = append(routes, makeRoute(c, variant))
	}
	return routes
}

func makeRoute(c scanner.Candidate, chain []segment.Segment) ConcreteRoute {
	visible := make([]segment.Segment, 0, len(chain))
	for _, s := range chain {
		if s.Kind == segment.Group {
			continue
		}
		visible = append(visible, s)
	}
	return ConcreteRoute{
		Path:     segment.Path(visible),
		Segments: visible,
		Params:   segment.ParameterNames(visible),
		File:     c.File,
		RelDir:   c.RelDir,
	}
}
