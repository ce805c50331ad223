package router

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dirroute/dirroute/internal/errors"
	"github.com/dirroute/dirroute/pkg/handler"
	"github.com/dirroute/dirroute/pkg/middleware"
	"github.com/dirroute/dirroute/pkg/scanner"
	"github.com/dirroute/dirroute/pkg/segment"
)

func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("package route\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func okHandler(c *middleware.Ctx) (middleware.Outcome, error) {
	return middleware.Continue("ok"), nil
}

func traced(name string, trace *[]string) middleware.Middleware {
	return middleware.Func(func(c *middleware.Ctx, next middleware.Next) (middleware.Outcome, error) {
		*trace = append(*trace, name)
		return next(c)
	})
}

// fakeLoader serves handler sets and middleware declarations keyed by the
// posix-relative directory of the requested file. It records which
// middleware directories were actually loaded.
type fakeLoader struct {
	root     string
	sets     map[string]*handler.Set
	mw       map[string]any
	loadedMW []string
	failFor  map[string]error
}

func newFakeLoader(t *testing.T, root string) *fakeLoader {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeLoader{
		root:    resolved,
		sets:    make(map[string]*handler.Set),
		mw:      make(map[string]any),
		failFor: make(map[string]error),
	}
}

func (l *fakeLoader) relDir(file string) string {
	resolved, err := filepath.EvalSymlinks(file)
	if err != nil {
		resolved = file
	}
	rel, err := filepath.Rel(l.root, filepath.Dir(resolved))
	if err != nil {
		return file
	}
	return filepath.ToSlash(rel)
}

func (l *fakeLoader) LoadHandlers(file string) (*handler.Set, error) {
	rel := l.relDir(file)
	if err, ok := l.failFor[rel]; ok {
		return nil, err
	}
	return l.sets[rel], nil
}

func (l *fakeLoader) LoadMiddleware(file string) (any, error) {
	rel := l.relDir(file)
	l.loadedMW = append(l.loadedMW, rel)
	return l.mw[rel], nil
}

func (l *fakeLoader) get(dir string) *handler.Set {
	set, ok := l.sets[dir]
	if !ok {
		set = &handler.Set{Handlers: make(map[string]handler.Config)}
		l.sets[dir] = set
	}
	if set.Handlers == nil {
		set.Handlers = make(map[string]handler.Config)
	}
	return set
}

func (l *fakeLoader) handle(dir, method string, cfg handler.Config) {
	l.get(dir).Handlers[method] = cfg
}

func candidate(t *testing.T, relDir string) scanner.Candidate {
	t.Helper()
	var parts []string
	if relDir != "." {
		parts = strings.Split(relDir, "/")
	}
	segs, err := segment.ParseChain(parts)
	if err != nil {
		t.Fatal(err)
	}
	return scanner.Candidate{Segments: segs, File: relDir + "/route.go", RelDir: relDir}
}

func TestExpandNoOptionals(t *testing.T) {
	routes := Expand(candidate(t, "users/[id]"))
	if len(routes) != 1 {
		t.Fatalf("routes = %d, want 1", len(routes))
	}
	if routes[0].Path != "/users/{id}" {
		t.Fatalf("path = %q", routes[0].Path)
	}
	if len(routes[0].Params) != 1 || routes[0].Params[0] != "id" {
		t.Fatalf("params = %v", routes[0].Params)
	}
}

func TestExpandPowerOfTwo(t *testing.T) {
	routes := Expand(candidate(t, "api/[[version]]/[[format]]/users"))
	if len(routes) != 4 {
		t.Fatalf("routes = %d, want 4", len(routes))
	}
	seen := make(map[string]bool)
	for _, r := range routes {
		if seen[r.Path] {
			t.Fatalf("duplicate variant path %q", r.Path)
		}
		seen[r.Path] = true
	}
	for _, want := range []string{
		"/api/users",
		"/api/{version}/users",
		"/api/{format}/users",
		"/api/{version}/{format}/users",
	} {
		if !seen[want] {
			t.Errorf("missing variant %q (got %v)", want, routes)
		}
	}
}

func TestExpandGroupOmitted(t *testing.T) {
	routes := Expand(candidate(t, "(admin)/settings"))
	if len(routes) != 1 || routes[0].Path != "/settings" {
		t.Fatalf("routes = %v", routes)
	}
	for _, s := range routes[0].Segments {
		if s.Kind == segment.Group {
			t.Fatal("group segment leaked into concrete route")
		}
	}
}

func TestExpandGroupOnlyRendersRoot(t *testing.T) {
	routes := Expand(candidate(t, "(public)"))
	if len(routes) != 1 || routes[0].Path != "/" {
		t.Fatalf("routes = %v", routes)
	}
}

func TestSortRoutesSpecificFirst(t *testing.T) {
	routes := []ConcreteRoute{
		{Path: "/users/{id}", Params: []string{"id"}, Segments: make([]segment.Segment, 2)},
		{Path: "/users/me", Params: nil, Segments: make([]segment.Segment, 2)},
		{Path: "/about", Params: nil, Segments: make([]segment.Segment, 1)},
	}
	sortRoutes(routes)
	got := []string{routes[0].Path, routes[1].Path, routes[2].Path}
	want := []string{"/about", "/users/me", "/users/{id}"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestResolveBasic(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"route.go",
		"users/[id]/route.go",
	)
	loader := newFakeLoader(t, root)
	loader.handle(".", "get", handler.MustNew(okHandler))
	loader.handle("users/[id]", "get", handler.MustNew(okHandler))
	loader.handle("users/[id]", "post", handler.MustNew(okHandler))
	loader.handle("users/[id]", "delete", handler.MustNew(okHandler))

	regs, err := New(root, loader).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(regs) != 4 {
		t.Fatalf("registrations = %d, want 4", len(regs))
	}

	byKey := make(map[string]Registration)
	for _, reg := range regs {
		byKey[reg.Method+" "+reg.Path] = reg
	}
	if _, ok := byKey["GET /"]; !ok {
		t.Fatal("missing GET /")
	}
	if reg := byKey["POST /users/{id}"]; reg.StatusCode != 201 {
		t.Fatalf("POST status = %d, want 201", reg.StatusCode)
	}
	if reg := byKey["DELETE /users/{id}"]; reg.StatusCode != 204 {
		t.Fatalf("DELETE status = %d, want 204", reg.StatusCode)
	}
	if reg := byKey["GET /users/{id}"]; reg.StatusCode != 200 {
		t.Fatalf("GET status = %d, want 200", reg.StatusCode)
	}
}

func TestResolvePrefix(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "route.go", "users/route.go")
	loader := newFakeLoader(t, root)
	loader.handle(".", "get", handler.MustNew(okHandler))
	loader.handle("users", "get", handler.MustNew(okHandler))

	regs, err := New(root, loader, WithPrefix("/api/")).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	paths := make(map[string]bool)
	for _, reg := range regs {
		paths[reg.Path] = true
	}
	if !paths["/api"] || !paths["/api/users"] {
		t.Fatalf("paths = %v", paths)
	}
}

func TestResolveOptionalVariantsShareSource(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "api/[[version]]/users/route.go")
	loader := newFakeLoader(t, root)
	loader.handle("api/[[version]]/users", "get", handler.MustNew(okHandler))

	regs, err := New(root, loader).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("registrations = %d, want 2", len(regs))
	}
	paths := map[string]bool{}
	for _, reg := range regs {
		paths[reg.Path] = true
		if reg.File != regs[0].File {
			t.Fatal("variants should share a source file")
		}
	}
	if !paths["/api/users"] || !paths["/api/{version}/users"] {
		t.Fatalf("paths = %v", paths)
	}
}

func TestResolveDuplicateAcrossGroup(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"users/route.go",
		"(admin)/users/route.go",
	)
	loader := newFakeLoader(t, root)
	loader.handle("users", "get", handler.MustNew(okHandler))
	loader.handle("(admin)/users", "get", handler.MustNew(okHandler))

	_, err := New(root, loader).Resolve()
	if err == nil {
		t.Fatal("expected duplicate route conflict")
	}
	if !errors.IsCode(err, errors.CodeDuplicateRoute) {
		t.Fatalf("code = %v, want %s", err, errors.CodeDuplicateRoute)
	}
	msg := err.Error()
	if !strings.Contains(msg, "GET") || !strings.Contains(msg, "/users") {
		t.Fatalf("message = %q, want method and path named", msg)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error type = %T", err)
	}
	both := e.Detail + " " + e.File
	if !strings.Contains(both, filepath.FromSlash("users/route.go")) ||
		!strings.Contains(both, filepath.FromSlash("(admin)/users/route.go")) {
		t.Fatalf("conflict should name both files, got detail=%q file=%q", e.Detail, e.File)
	}
}

func TestResolveChainOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"_middleware.go",
		"api/_middleware.go",
		"api/v1/_middleware.go",
		"api/v1/users/route.go",
	)

	var trace []string
	loader := newFakeLoader(t, root)
	loader.mw["."] = traced("root", &trace)
	loader.mw["api"] = traced("api", &trace)
	loader.mw["api/v1"] = traced("v1", &trace)
	loader.handle("api/v1/users", "get", handler.MustNew(okHandler,
		handler.WithMiddleware(traced("handler-mw", &trace))))
	loader.get("api/v1/users").Middleware = traced("file", &trace)

	regs, err := New(root, loader).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(regs) != 1 {
		t.Fatalf("registrations = %d, want 1", len(regs))
	}

	c := middleware.NewCtx(context.Background())
	if _, err := middleware.Compose(c, regs[0].Chain, regs[0].Handler); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	want := []string{"root", "api", "v1", "file", "handler-mw"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestResolveIncludeKeepsAncestorMiddleware(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"_middleware.go",
		"(public)/users/route.go",
		"(admin)/settings/route.go",
		"(admin)/_middleware.go",
	)

	var trace []string
	loader := newFakeLoader(t, root)
	loader.mw["."] = traced("root", &trace)
	loader.mw["(admin)"] = traced("admin", &trace)
	loader.handle("(public)/users", "get", handler.MustNew(okHandler))
	loader.handle("(admin)/settings", "get", handler.MustNew(okHandler))

	regs, err := New(root, loader, WithInclude("users")).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(regs) != 1 || regs[0].Path != "/users" {
		t.Fatalf("registrations = %v", regs)
	}
	if len(regs[0].Chain) != 1 {
		t.Fatalf("chain length = %d, want root middleware applied", len(regs[0].Chain))
	}

	// Middleware outside the active directory set must never be loaded.
	for _, dir := range loader.loadedMW {
		if dir == "(admin)" {
			t.Fatal("pruned directory middleware was loaded")
		}
	}
}

func TestResolveNothingSurvivesLoadsNoMiddleware(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"_middleware.go",
		"users/route.go",
	)
	var trace []string
	loader := newFakeLoader(t, root)
	loader.mw["."] = traced("root", &trace)
	loader.handle("users", "get", handler.MustNew(okHandler))

	regs, err := New(root, loader, WithInclude("billing")).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(regs) != 0 {
		t.Fatalf("registrations = %v, want none", regs)
	}
	if len(loader.loadedMW) != 0 {
		t.Fatalf("middleware loaded for %v with no surviving routes", loader.loadedMW)
	}
}

func TestResolveFilterConflictBeforeScan(t *testing.T) {
	loader := &fakeLoader{}
	_, err := New(filepath.Join(t.TempDir(), "missing"), loader,
		WithInclude("users"), WithExclude("settings")).Resolve()
	if err == nil {
		t.Fatal("expected filter conflict")
	}
	// The conflict wins over the missing root: filters are validated
	// before any scanning.
	if !errors.IsCode(err, errors.CodeFilterConflict) {
		t.Fatalf("code = %v, want %s", err, errors.CodeFilterConflict)
	}
}

func TestResolveWebSocketChainDropped(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"_middleware.go",
		"live/route.go",
	)
	var trace []string
	loader := newFakeLoader(t, root)
	loader.mw["."] = traced("root", &trace)
	ws, err := handler.NewWebSocket(struct{ name string }{"feed"})
	if err != nil {
		t.Fatal(err)
	}
	loader.handle("live", "websocket", ws)

	regs, err := New(root, loader).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(regs) != 1 {
		t.Fatalf("registrations = %d, want 1", len(regs))
	}
	reg := regs[0]
	if !reg.WebSocketKind || reg.Method != "WEBSOCKET" {
		t.Fatalf("registration = %+v", reg)
	}
	if len(reg.Chain) != 0 {
		t.Fatal("websocket registration must not carry a chain")
	}
	if reg.WebSocket == nil {
		t.Fatal("websocket handler missing")
	}
}

func TestResolveLoaderFailureFatal(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "users/route.go")
	loader := newFakeLoader(t, root)
	loader.failFor["users"] = fmt.Errorf("boom")

	_, err := New(root, loader).Resolve()
	if err == nil {
		t.Fatal("expected loader failure to be fatal")
	}
	if !errors.IsCode(err, errors.CodeLoader) {
		t.Fatalf("code = %v, want %s", err, errors.CodeLoader)
	}
}

func TestResolveEmptyHandlerSetSkipped(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"users/route.go",
		"about/route.go",
	)
	loader := newFakeLoader(t, root)
	loader.handle("about", "get", handler.MustNew(okHandler))
	loader.get("users") // declares nothing

	regs, err := New(root, loader).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(regs) != 1 || regs[0].Path != "/about" {
		t.Fatalf("registrations = %v", regs)
	}
}

func TestDefaultStatusCode(t *testing.T) {
	tests := []struct {
		method string
		want   int
	}{
		{"get", 200},
		{"post", 201},
		{"delete", 204},
		{"put", 200},
		{"patch", 200},
	}
	for _, tt := range tests {
		if got := DefaultStatusCode(tt.method); got != tt.want {
			t.Errorf("DefaultStatusCode(%q) = %d, want %d", tt.method, got, tt.want)
		}
	}
}
