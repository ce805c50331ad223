package router

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dirroute/dirroute/internal/errors"
	"github.com/dirroute/dirroute/pkg/filter"
	"github.com/dirroute/dirroute/pkg/handler"
	"github.com/dirroute/dirroute/pkg/middleware"
	"github.com/dirroute/dirroute/pkg/scanner"
)

// Loader turns discovered source files into handler sets and middleware
// declarations. The engine treats it as opaque: any load failure for a
// retained location fails the whole resolution.
type Loader interface {
	// LoadHandlers returns the handler set declared by a route file.
	LoadHandlers(file string) (*handler.Set, error)

	// LoadMiddleware returns the raw middleware declaration of a
	// directory-scoped middleware file.
	LoadMiddleware(file string) (any, error)
}

// Router resolves a route tree into registrations.
type Router struct {
	root           string
	prefix         string
	filter         filter.Config
	routeFile      string
	middlewareFile string
	loader         Loader
	logger         *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithPrefix prepends a URL prefix to every resolved path.
func WithPrefix(prefix string) Option {
	return func(r *Router) { r.prefix = prefix }
}

// WithInclude keeps only routes matching the given patterns.
func WithInclude(patterns ...string) Option {
	return func(r *Router) { r.filter.Include = patterns }
}

// WithExclude drops routes matching the given patterns.
func WithExclude(patterns ...string) Option {
	return func(r *Router) { r.filter.Exclude = patterns }
}

// WithFilter sets the full filter configuration.
func WithFilter(cfg filter.Config) Option {
	return func(r *Router) { r.filter = cfg }
}

// WithRouteFile overrides the route file name convention.
func WithRouteFile(name string) Option {
	return func(r *Router) { r.routeFile = name }
}

// WithMiddlewareFile overrides the middleware file name convention.
func WithMiddlewareFile(name string) Option {
	return func(r *Router) { r.middlewareFile = name }
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// New creates a Router over the tree rooted at root, loading sources
// through loader.
func New(root string, loader Loader, opts ...Option) *Router {
	r := &Router{
		root:           root,
		routeFile:      scanner.DefaultRouteFile,
		middlewareFile: scanner.DefaultMiddlewareFile,
		loader:         loader,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// resolution is the per-pass working state: caches keyed by canonical file
// identity, constructed fresh for every Resolve call and discarded after.
type resolution struct {
	handlerSets map[string]*handler.Set
	fileMW      map[string][]middleware.Middleware
}

// Resolve runs the full resolution pass and returns the ordered
// registrations.
//
// Any error aborts before a single registration is returned. The only
// silent exclusions are symlink containment violations during scanning and
// websocket routes whose chains are dropped with a warning.
func (r *Router) Resolve() ([]Registration, error) {
	// Filter conflicts are caught before any filesystem access.
	if err := r.filter.Validate(); err != nil {
		return nil, err
	}

	sc := scanner.New(r.root,
		scanner.WithRouteFile(r.routeFile),
		scanner.WithMiddlewareFile(r.middlewareFile))
	candidates, seeds, err := sc.Scan()
	if err != nil {
		return nil, err
	}

	kept := candidates[:0:0]
	for _, c := range candidates {
		if r.filter.Keep(c.RelDir) {
			kept = append(kept, c)
		} else {
			r.logger.Debug("route filtered out", "dir", c.RelDir)
		}
	}

	relDirs := make([]string, len(kept))
	for i, c := range kept {
		relDirs[i] = c.RelDir
	}
	active := filter.ActiveDirectories(relDirs)

	dirMW, err := r.resolveDirectoryMiddleware(seeds, active)
	if err != nil {
		return nil, err
	}

	var routes []ConcreteRoute
	for _, c := range kept {
		routes = append(routes, Expand(c)...)
	}
	sortRoutes(routes)

	res := &resolution{
		handlerSets: make(map[string]*handler.Set),
		fileMW:      make(map[string][]middleware.Middleware),
	}
	tbl := newTable()
	prefix := normalizePrefix(r.prefix)

	var regs []Registration
	for _, route := range routes {
		set, err := r.handlerSet(res, route.File)
		if err != nil {
			return nil, err
		}
		if set.Empty() {
			r.logger.Debug("route file declares no handlers", "file", route.File)
			continue
		}

		fileMW, err := r.fileMiddleware(res, route.File, set)
		if err != nil {
			return nil, err
		}

		path := joinPath(prefix, route.Path)
		for _, method := range sortedMethods(set) {
			cfg := set.Handlers[method]
			reg, err := r.register(tbl, route, set, cfg, method, path, dirMW, fileMW)
			if err != nil {
				return nil, err
			}
			regs = append(regs, reg)
		}
	}

	r.logger.Debug("route tree resolved",
		"candidates", len(kept), "routes", len(routes), "registrations", len(regs))
	return regs, nil
}

// resolveDirectoryMiddleware loads and normalizes middleware only for
// directories in the active set. Seeds outside it are never loaded; this
// is an isolation property, not an optimization.
func (r *Router) resolveDirectoryMiddleware(seeds []scanner.MiddlewareSeed, active map[string]bool) (middleware.Directory, error) {
	dir := make(middleware.Directory, len(seeds))
	for _, seed := range seeds {
		if !active[seed.RelDir] {
			continue
		}
		decl, err := r.loader.LoadMiddleware(seed.File)
		if err != nil {
			return nil, loaderError(err, seed.File)
		}
		mw, err := middleware.Normalize(decl, seed.File)
		if err != nil {
			return nil, err
		}
		dir[seed.RelDir] = mw
	}
	return dir, nil
}

func (r *Router) register(tbl *table, route ConcreteRoute, set *handler.Set, cfg handler.Config, method, path string, dirMW middleware.Directory, fileMW []middleware.Middleware) (Registration, error) {
	methodLabel := strings.ToUpper(method)
	if err := tbl.claim(path, methodLabel, route.File); err != nil {
		return Registration{}, err
	}

	chain := middleware.BuildChain(
		middleware.CollectDirectory(dirMW, route.RelDir),
		fileMW,
		cfg.Middleware(),
	)

	reg := Registration{
		Method:        methodLabel,
		Path:          path,
		File:          route.File,
		RelDir:        route.RelDir,
		Params:        route.Params,
		Tags:          firstNonEmpty(cfg.Tags(), set.Metadata.Tags),
		Summary:       firstNonEmptyString(cfg.Summary(), set.Metadata.Summary),
		Deprecated:    cfg.IsDeprecated() || set.Metadata.Deprecated,
		WebSocketKind: cfg.IsWebSocket(),
	}

	if cfg.IsWebSocket() {
		// Websocket routes are never chain-wrapped. A non-empty chain is
		// a diagnostic, not a failure.
		if len(chain) > 0 {
			r.logger.Warn("middleware not applied to websocket route",
				"path", path, "skipped", len(chain))
		}
		reg.WebSocket = cfg.WebSocket()
		return reg, nil
	}

	reg.Chain = chain
	reg.Handler = cfg.Handler()
	reg.StatusCode = cfg.StatusCode()
	if reg.StatusCode == 0 {
		reg.StatusCode = DefaultStatusCode(method)
	}
	return reg, nil
}

// handlerSet loads a route file's handler set once per pass, keyed by the
// file's canonical identity so aliased paths share one load.
func (r *Router) handlerSet(res *resolution, file string) (*handler.Set, error) {
	key := canonicalFile(file)
	if set, ok := res.handlerSets[key]; ok {
		return set, nil
	}
	set, err := r.loader.LoadHandlers(file)
	if err != nil {
		return nil, loaderError(err, file)
	}
	if set == nil {
		set = &handler.Set{}
	}
	res.handlerSets[key] = set
	return set, nil
}

func (r *Router) fileMiddleware(res *resolution, file string, set *handler.Set) ([]middleware.Middleware, error) {
	key := canonicalFile(file)
	if mw, ok := res.fileMW[key]; ok {
		return mw, nil
	}
	mw, err := middleware.Normalize(set.Middleware, file)
	if err != nil {
		return nil, err
	}
	res.fileMW[key] = mw
	return mw, nil
}

func loaderError(err error, file string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithFile(file)
	}
	return errors.New(errors.CodeLoader,
		"Failed to load route source: %v", err).
		Wrap(err).
		WithFile(file)
}

func canonicalFile(file string) string {
	if resolved, err := filepath.EvalSymlinks(file); err == nil {
		return resolved
	}
	return file
}

func sortedMethods(set *handler.Set) []string {
	methods := make([]string, 0, len(set.Handlers))
	for m := range set.Handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

func normalizePrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

func joinPath(prefix, path string) string {
	if prefix == "" {
		return path
	}
	if path == "/" {
		return prefix
	}
	return prefix + path
}

func firstNonEmpty(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}

func firstNonEmptyString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
