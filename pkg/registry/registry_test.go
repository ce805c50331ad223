package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dirroute/dirroute/pkg/handler"
	"github.com/dirroute/dirroute/pkg/middleware"
	"github.com/dirroute/dirroute/pkg/router"
)

func okHandler(c *middleware.Ctx) (middleware.Outcome, error) {
	return middleware.Continue("ok"), nil
}

func TestRegistryImplementsLoader(t *testing.T) {
	var _ router.Loader = New(t.TempDir())
}

func TestLoadHandlers(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "users")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "route.go")
	if err := os.WriteFile(file, []byte("package route\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := New(root).
		Handle("users", "GET", handler.MustNew(okHandler)).
		Handle("users", "post", handler.MustNew(okHandler)).
		Meta("users", handler.Metadata{Tags: []string{"users"}, Summary: "user ops"})

	set, err := reg.LoadHandlers(file)
	if err != nil {
		t.Fatalf("LoadHandlers: %v", err)
	}
	if len(set.Handlers) != 2 {
		t.Fatalf("handlers = %d, want 2", len(set.Handlers))
	}
	if _, ok := set.Handlers["get"]; !ok {
		t.Fatal("method name not normalized to lower case")
	}
	if set.Metadata.Summary != "user ops" {
		t.Fatalf("summary = %q", set.Metadata.Summary)
	}
}

func TestLoadHandlersUnregistered(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "orphan", "route.go")

	set, err := New(root).LoadHandlers(file)
	if err != nil {
		t.Fatalf("LoadHandlers: %v", err)
	}
	if !set.Empty() {
		t.Fatal("unregistered directory should yield an empty set")
	}
}

func TestLoadMiddleware(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "api")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "_middleware.go")
	if err := os.WriteFile(file, []byte("package route\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	mw := middleware.Func(func(c *middleware.Ctx, next middleware.Next) (middleware.Outcome, error) {
		return next(c)
	})
	reg := New(root).Middleware("api", mw)

	decl, err := reg.LoadMiddleware(file)
	if err != nil {
		t.Fatalf("LoadMiddleware: %v", err)
	}
	if decl == nil {
		t.Fatal("middleware declaration lost")
	}
}

func TestHandleUnknownMethodPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown method")
		}
	}()
	New(t.TempDir()).Handle("users", "fetch", handler.MustNew(okHandler))
}

func TestNormDir(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "."},
		{".", "."},
		{"/users/", "users"},
		{"api/v1", "api/v1"},
	}
	for _, tt := range tests {
		if got := normDir(tt.in); got != tt.want {
			t.Errorf("normDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
