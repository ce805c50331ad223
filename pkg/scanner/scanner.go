// Package scanner walks a route tree and discovers route and middleware
// files.
//
// The walk applies hygiene and security filters: hidden components and
// build-cache directories are skipped, and any entry whose symlink-resolved
// target lies outside the root is silently excluded. Only the author's own
// naming mistakes are hard failures, never filesystem topology.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dirroute/dirroute/internal/errors"
	"github.com/dirroute/dirroute/pkg/segment"
)

const (
	// DefaultRouteFile is the file name that marks a directory as a route.
	DefaultRouteFile = "route.go"

	// DefaultMiddlewareFile is the file name that declares directory-scoped
	// middleware.
	DefaultMiddlewareFile = "_middleware.go"
)

// skipDirs are build-cache directory names never scanned.
var skipDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	"vendor":       true,
}

// Candidate is a discovered route-defining file with its parsed directory
// segments.
type Candidate struct {
	// Segments is the parsed directory chain from the root to the file's
	// directory.
	Segments []segment.Segment

	// File is the absolute path to the route file.
	File string

	// Dir is the absolute path to the directory containing the file.
	Dir string

	// RelDir is the posix-normalized directory path relative to the root,
	// "." for the root itself.
	RelDir string
}

// MiddlewareSeed is a discovered middleware-declaration file.
type MiddlewareSeed struct {
	// File is the absolute path to the middleware file.
	File string

	// Dir is the absolute path to the directory containing the file.
	Dir string

	// RelDir is the posix-normalized directory path relative to the root.
	RelDir string

	// Depth is the directory depth from the root (0 = root).
	Depth int
}

// Scanner scans a directory tree for route and middleware files.
type Scanner struct {
	root           string
	routeFile      string
	middlewareFile string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRouteFile overrides the route file name convention.
func WithRouteFile(name string) Option {
	return func(s *Scanner) { s.routeFile = name }
}

// WithMiddlewareFile overrides the middleware file name convention.
func WithMiddlewareFile(name string) Option {
	return func(s *Scanner) { s.middlewareFile = name }
}

// New creates a scanner rooted at dir.
func New(root string, opts ...Option) *Scanner {
	s := &Scanner{
		root:           root,
		routeFile:      DefaultRouteFile,
		middlewareFile: DefaultMiddlewareFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks the tree and returns route candidates and middleware seeds.
//
// Candidates have their directory chains parsed fail-fast: the first invalid
// segment aborts the whole scan. Middleware seeds are returned sorted by
// depth, shallowest first, then by path for determinism.
func (s *Scanner) Scan() ([]Candidate, []MiddlewareSeed, error) {
	root, err := s.resolveRoot()
	if err != nil {
		return nil, nil, err
	}

	var (
		candidates []Candidate
		seeds      []MiddlewareSeed
	)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		// WalkDir reports symlinks as non-directory entries and never
		// descends into symlinked directories, so nothing behind one is
		// ever visited; containment is checked on the terminal files.
		if name != s.routeFile && name != s.middlewareFile {
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		// The terminal file itself can be a symlink that escapes
		// containment even when its directory does not.
		if !s.contained(path, root) {
			return nil
		}

		dir := filepath.Dir(path)
		rel, relErr := filepath.Rel(root, dir)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if name == s.middlewareFile {
			depth := 0
			if rel != "." {
				depth = len(strings.Split(rel, "/"))
			}
			seeds = append(seeds, MiddlewareSeed{
				File:   path,
				Dir:    dir,
				RelDir: rel,
				Depth:  depth,
			})
			return nil
		}

		var parts []string
		if rel != "." {
			parts = strings.Split(rel, "/")
		}
		segments, parseErr := segment.ParseChain(parts)
		if parseErr != nil {
			if e, ok := parseErr.(*errors.Error); ok {
				return e.WithFile(path)
			}
			return parseErr
		}

		candidates = append(candidates, Candidate{
			Segments: segments,
			File:     path,
			Dir:      dir,
			RelDir:   rel,
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(seeds, func(i, j int) bool {
		if seeds[i].Depth != seeds[j].Depth {
			return seeds[i].Depth < seeds[j].Depth
		}
		return seeds[i].RelDir < seeds[j].RelDir
	})

	return candidates, seeds, nil
}

// resolveRoot validates and symlink-resolves the scan root.
func (s *Scanner) resolveRoot() (string, error) {
	info, err := os.Stat(s.root)
	if os.IsNotExist(err) {
		return "", errors.New(errors.CodeRouteDiscovery,
			"Route tree root does not exist: %s", s.root)
	}
	if err != nil {
		return "", errors.New(errors.CodeRouteDiscovery,
			"Route tree root is not accessible: %s", s.root).Wrap(err)
	}
	if !info.IsDir() {
		return "", errors.New(errors.CodeRouteDiscovery,
			"Route tree root is not a directory: %s", s.root)
	}

	resolved, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		return "", errors.New(errors.CodeRouteDiscovery,
			"Route tree root is not resolvable: %s", s.root).Wrap(err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// contained reports whether path, after symlink resolution, lies within
// root. Unresolvable paths (broken links) are treated as outside.
func (s *Scanner) contained(path, root string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}
