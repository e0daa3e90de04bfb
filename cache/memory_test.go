package cache

import (
	"context"
	"testing"
	"time"

	"github.com/classboard/palisade"
)

func testRequest(userID, layerID string) *palisade.CheckRequest {
	return &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "schoolAdmin", ID: userID},
		Action:  palisade.ActionRead,
		Layer:   palisade.Layer{ID: layerID, Variant: palisade.VariantDefault},
	}
}

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	req := testRequest("user:1", "board.school.42")
	if _, ok := c.Get(ctx, "t1", req); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, "t1", req, &palisade.CheckResult{Granted: true, Decision: palisade.DecisionGrant})

	res, ok := c.Get(ctx, "t1", req)
	if !ok || !res.Granted {
		t.Fatal("expected cached grant")
	}

	// Different tenant, same request: miss.
	if _, ok := c.Get(ctx, "t2", req); ok {
		t.Fatal("tenant isolation violated")
	}
}

func TestMemoryCacheGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	req := testRequest("user:1", "board.school.42")
	c.Set(ctx, "t1", req, &palisade.CheckResult{Granted: true, Decision: palisade.DecisionGrant})

	first, ok := c.Get(ctx, "t1", req)
	if !ok {
		t.Fatal("expected hit")
	}
	first.EvalTimeNs = 999

	second, ok := c.Get(ctx, "t1", req)
	if !ok {
		t.Fatal("expected hit")
	}
	if second.EvalTimeNs == 999 {
		t.Fatal("Get returned the shared entry, not a copy")
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(10 * time.Millisecond))

	req := testRequest("user:1", "board.school.42")
	c.Set(ctx, "t1", req, &palisade.CheckResult{Granted: true})

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(ctx, "t1", req); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	r1 := testRequest("user:1", "board.school.42")
	r2 := testRequest("user:2", "board.school.42")
	c.Set(ctx, "t1", r1, &palisade.CheckResult{Granted: false})
	c.Set(ctx, "t1", r2, &palisade.CheckResult{Granted: true})

	c.InvalidateUser(ctx, "t1", "user:1")

	if _, ok := c.Get(ctx, "t1", r1); ok {
		t.Fatal("user:1 entries should be invalidated")
	}
	if _, ok := c.Get(ctx, "t1", r2); !ok {
		t.Fatal("user:2 entries should survive")
	}
}

func TestMemoryCacheInvalidateTenant(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	req := testRequest("user:1", "board.school.42")
	c.Set(ctx, "t1", req, &palisade.CheckResult{Granted: true})
	c.Set(ctx, "t2", req, &palisade.CheckResult{Granted: true})

	c.InvalidateTenant(ctx, "t1")

	if _, ok := c.Get(ctx, "t1", req); ok {
		t.Fatal("t1 entries should be invalidated")
	}
	if _, ok := c.Get(ctx, "t2", req); !ok {
		t.Fatal("t2 entries should survive")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	c.Set(ctx, "t1", testRequest("user:1", "a"), &palisade.CheckResult{})
	c.Set(ctx, "t1", testRequest("user:2", "b"), &palisade.CheckResult{})
	c.Set(ctx, "t1", testRequest("user:3", "c"), &palisade.CheckResult{})

	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	if n > 2 {
		t.Fatalf("expected at most 2 entries, got %d", n)
	}
}
