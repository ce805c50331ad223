package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/dirroute/dirroute/internal/errors"
)

// named returns a middleware that records its name on entry and exit.
func named(name string, trace *[]string) Middleware {
	return Func(func(c *Ctx, next Next) (Outcome, error) {
		*trace = append(*trace, name+":in")
		out, err := next(c)
		*trace = append(*trace, name+":out")
		return out, err
	})
}

func TestComposeOrder(t *testing.T) {
	var trace []string
	mw := []Middleware{named("a", &trace), named("b", &trace), named("c", &trace)}

	out, err := Compose(NewCtx(nil), mw, func(c *Ctx) (Outcome, error) {
		trace = append(trace, "handler")
		return Continue("ok"), nil
	})
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if out.Response != "ok" || out.Halted() {
		t.Errorf("outcome = %+v", out)
	}

	want := []string{"a:in", "b:in", "c:in", "handler", "c:out", "b:out", "a:out"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestComposeEmptyChain(t *testing.T) {
	out, err := Compose(NewCtx(nil), nil, func(c *Ctx) (Outcome, error) {
		return Continue(42), nil
	})
	if err != nil || out.Response != 42 {
		t.Errorf("out = %+v, err = %v", out, err)
	}
}

func TestShortCircuitSkipsInnerChain(t *testing.T) {
	var trace []string
	gate := Func(func(c *Ctx, next Next) (Outcome, error) {
		trace = append(trace, "gate")
		return ShortCircuit(http.StatusUnauthorized, "denied"), nil
	})
	mw := []Middleware{named("outer", &trace), gate, named("inner", &trace)}

	out, err := Compose(NewCtx(nil), mw, func(c *Ctx) (Outcome, error) {
		trace = append(trace, "handler")
		return Continue("ok"), nil
	})
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if !out.Halted() || out.Status != http.StatusUnauthorized || out.Response != "denied" {
		t.Errorf("outcome = %+v", out)
	}

	for _, step := range trace {
		if step == "inner:in" || step == "handler" {
			t.Errorf("short-circuit leaked past the gate: %v", trace)
		}
	}
}

func TestNormalize(t *testing.T) {
	pass := Func(func(c *Ctx, next Next) (Outcome, error) { return next(c) })

	t.Run("nil is empty", func(t *testing.T) {
		mw, err := Normalize(nil, "f")
		if err != nil || len(mw) != 0 {
			t.Errorf("mw = %v, err = %v", mw, err)
		}
	})

	t.Run("single value becomes one-element sequence", func(t *testing.T) {
		mw, err := Normalize(pass, "f")
		if err != nil || len(mw) != 1 {
			t.Errorf("mw = %v, err = %v", mw, err)
		}
	})

	t.Run("bare chain func is adapted", func(t *testing.T) {
		mw, err := Normalize(func(c *Ctx, next Next) (Outcome, error) { return next(c) }, "f")
		if err != nil || len(mw) != 1 {
			t.Errorf("mw = %v, err = %v", mw, err)
		}
	})

	t.Run("slice preserves order", func(t *testing.T) {
		mw, err := Normalize([]Middleware{pass, pass, pass}, "f")
		if err != nil || len(mw) != 3 {
			t.Errorf("mw = %v, err = %v", mw, err)
		}
	})

	t.Run("mixed any slice", func(t *testing.T) {
		mw, err := Normalize([]any{pass, func(c *Ctx, next Next) (Outcome, error) { return next(c) }}, "f")
		if err != nil || len(mw) != 2 {
			t.Errorf("mw = %v, err = %v", mw, err)
		}
	})
}

func TestNormalizeContractViolations(t *testing.T) {
	tests := []struct {
		name string
		decl any
	}{
		{"plain value", 42},
		{"string", "not middleware"},
		{"handler without continuation", func(c *Ctx) (Outcome, error) { return Continue(nil), nil }},
		{"error-only func", func(c *Ctx) error { return nil }},
		{"bad entry in slice", []any{Func(func(c *Ctx, next Next) (Outcome, error) { return next(c) }), "oops"}},
		{"nil entry in slice", []any{nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.decl, "app/_middleware.go")
			if err == nil {
				t.Fatal("expected contract violation")
			}
			if !errors.IsCode(err, errors.CodeMiddlewareContract) {
				t.Errorf("error code = %q, want %q", errors.CodeOf(err), errors.CodeMiddlewareContract)
			}
		})
	}
}

func TestCollectDirectoryOrder(t *testing.T) {
	mk := func(name string, trace *[]string) []Middleware {
		return []Middleware{named(name, trace)}
	}
	var trace []string
	dir := Directory{
		".":      mk("root", &trace),
		"api":    mk("api", &trace),
		"api/v1": mk("v1", &trace),
		"other":  mk("other", &trace),
	}

	chain := CollectDirectory(dir, "api/v1/users")
	if len(chain) != 3 {
		t.Fatalf("chain length = %d, want 3", len(chain))
	}

	_, err := Compose(NewCtx(nil), chain, func(c *Ctx) (Outcome, error) {
		trace = append(trace, "handler")
		return Continue(nil), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"root:in", "api:in", "v1:in", "handler", "v1:out", "api:out", "root:out"}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestCollectDirectoryRootOnly(t *testing.T) {
	var trace []string
	dir := Directory{".": {named("root", &trace)}}
	if got := CollectDirectory(dir, "."); len(got) != 1 {
		t.Errorf("root chain length = %d", len(got))
	}
	if got := CollectDirectory(dir, "unrelated/deep"); len(got) != 1 {
		t.Errorf("ancestor chain length = %d", len(got))
	}
}

func TestBuildChainTierOrder(t *testing.T) {
	var trace []string
	chain := BuildChain(
		[]Middleware{named("dir", &trace)},
		[]Middleware{named("file", &trace)},
		[]Middleware{named("handler-mw", &trace)},
	)

	_, err := Compose(NewCtx(nil), chain, func(c *Ctx) (Outcome, error) {
		trace = append(trace, "handler")
		return Continue(nil), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"dir:in", "file:in", "handler-mw:in", "handler"}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want prefix %v", trace, want)
		}
	}
}

// Concurrent chain executions with distinct contexts must never observe
// each other's request-scoped state: an auth short-circuit for one caller
// cannot leak into another caller's response.
func TestConcurrentIsolation(t *testing.T) {
	type userKey struct{}

	auth := Func(func(c *Ctx, next Next) (Outcome, error) {
		if user, _ := c.Get(userKey{}); user == "blocked" {
			return ShortCircuit(http.StatusForbidden, "forbidden"), nil
		}
		return next(c)
	})

	const iterations = 200
	var wg sync.WaitGroup
	wg.Add(iterations * 2)

	for i := 0; i < iterations; i++ {
		go func(id int) {
			defer wg.Done()
			c := NewCtx(context.Background())
			c.Set(userKey{}, fmt.Sprintf("user-%d", id))
			out, err := Compose(c, []Middleware{auth}, func(c *Ctx) (Outcome, error) {
				user, _ := c.Get(userKey{})
				return Continue(user), nil
			})
			if err != nil || out.Halted() {
				t.Errorf("allowed caller was blocked: %+v, %v", out, err)
				return
			}
			if out.Response != fmt.Sprintf("user-%d", id) {
				t.Errorf("response crossed requests: got %v, want user-%d", out.Response, id)
			}
		}(i)

		go func() {
			defer wg.Done()
			c := NewCtx(context.Background())
			c.Set(userKey{}, "blocked")
			out, err := Compose(c, []Middleware{auth}, func(c *Ctx) (Outcome, error) {
				return Continue("should not run"), nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if !out.Halted() || out.Status != http.StatusForbidden {
				t.Errorf("blocked caller was allowed: %+v", out)
			}
		}()
	}

	wg.Wait()
}
