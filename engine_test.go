package palisade_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/cache"
	"github.com/classboard/palisade/decisionlog"
	"github.com/classboard/palisade/store/memory"
)

func newTestEngine(t *testing.T, opts ...palisade.Option) (*palisade.Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	eng, err := palisade.NewEngine(append([]palisade.Option{palisade.WithStore(s)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return eng, s
}

func testCtx() context.Context {
	return palisade.WithTenant(context.Background(), "app1", "board1")
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := palisade.NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestCheckTreeResolution(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	// A school admin can read a school but not change it: board.school
	// grants admin read, and read does not cover update.
	res, err := eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "schoolAdmin", ID: "alice"},
		Action:  palisade.ActionRead,
		Layer:   palisade.Layer{ID: "board.school"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Granted || res.Decision != palisade.DecisionGrant {
		t.Fatalf("read: granted=%v decision=%s", res.Granted, res.Decision)
	}

	res, err = eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "schoolAdmin", ID: "alice"},
		Action:  palisade.ActionUpdate,
		Layer:   palisade.Layer{ID: "board.school"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Granted || res.Decision != palisade.DecisionDenyThreshold {
		t.Fatalf("update: granted=%v decision=%s", res.Granted, res.Decision)
	}
}

func TestCheckOwnerCategoryOverride(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	// The caller asserts ownership; the role would only map to anyone.
	res, err := eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "student", ID: "bob", Category: palisade.CategoryOwner},
		Action:  palisade.ActionUpdate,
		Layer:   palisade.Layer{ID: "board.user.bob"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Granted {
		t.Fatalf("owner update denied: %s", res.Reason)
	}
}

func TestCheckUnknownRoleDenies(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	res, err := eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "janitor", ID: "joe"},
		Action:  palisade.ActionRead,
		Layer:   palisade.Layer{ID: "board.school"},
	})
	if err != nil {
		t.Fatalf("unknown role raised: %v", err)
	}
	if res.Granted || res.Decision != palisade.DecisionDenyUnknownRole {
		t.Fatalf("granted=%v decision=%s", res.Granted, res.Decision)
	}
}

func TestCheckInvalidInputDenies(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	tests := []palisade.CheckRequest{
		{Subject: palisade.Subject{Role: "superAdmin"}, Action: "fly", Layer: palisade.Layer{ID: "board"}},
		{Subject: palisade.Subject{Role: "superAdmin"}, Action: palisade.ActionBlocked, Layer: palisade.Layer{ID: "board"}},
		{Subject: palisade.Subject{Role: "superAdmin"}, Action: palisade.ActionRead, Layer: palisade.Layer{}},
	}
	for i := range tests {
		res, err := eng.Check(ctx, &tests[i])
		if err != nil {
			t.Fatalf("case %d raised: %v", i, err)
		}
		if res.Granted || res.Decision != palisade.DecisionDenyInvalid {
			t.Errorf("case %d: granted=%v decision=%s", i, res.Granted, res.Decision)
		}
	}
}

func TestCheckBlockedSentinel(t *testing.T) {
	ctx := testCtx()

	tree := palisade.NewTree()
	tree.Define("board").SetRules(palisade.VariantDefault, palisade.RuleSet{
		Rules: map[palisade.Category]palisade.Action{palisade.CategoryAdmin: palisade.ActionUpdate},
	})
	tree.Define("board.vault").SetRules(palisade.VariantDefault, palisade.RuleSet{
		Inherit: true,
		Rules:   map[palisade.Category]palisade.Action{palisade.CategoryAdmin: palisade.ActionBlocked},
	})

	eng, _ := newTestEngine(t, palisade.WithTree(tree))

	res, err := eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "schoolAdmin", ID: "alice"},
		Action:  palisade.ActionRead,
		Layer:   palisade.Layer{ID: "board.vault"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Granted || res.Decision != palisade.DecisionDenyBlocked {
		t.Fatalf("granted=%v decision=%s", res.Granted, res.Decision)
	}
}

func TestDirectGrantOverride(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	// The tree denies a student update on a school.
	ok, err := eng.CanI(ctx, "student", "bob", palisade.ActionUpdate, "board.school.7")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("update permitted before grant")
	}

	g, err := eng.Grant(ctx, "bob", "board.school.7", palisade.ActionUpdate, "root")
	if err != nil {
		t.Fatal(err)
	}

	res, err := eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "student", ID: "bob"},
		Action:  palisade.ActionUpdate,
		Layer:   palisade.Layer{ID: "board.school.7"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Granted || res.Decision != palisade.DecisionGrantDirect {
		t.Fatalf("granted=%v decision=%s", res.Granted, res.Decision)
	}

	if err := eng.Revoke(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	ok, err = eng.CanI(ctx, "student", "bob", palisade.ActionUpdate, "board.school.7")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("update still permitted after revoke")
	}
}

func TestDirectGrantUnmappedRole(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	// The grant is keyed by user id alone; a role without a category
	// mapping must not shadow it.
	if _, err := eng.Grant(ctx, "zed", "board.school.7", palisade.ActionUpdate, "root"); err != nil {
		t.Fatal(err)
	}

	res, err := eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "martian", ID: "zed"},
		Action:  palisade.ActionUpdate,
		Layer:   palisade.Layer{ID: "board.school.7"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Granted || res.Decision != palisade.DecisionGrantDirect {
		t.Fatalf("granted=%v decision=%s reason=%s", res.Granted, res.Decision, res.Reason)
	}

	// Without the grant the unmapped role still denies.
	res, err = eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "martian", ID: "zed"},
		Action:  palisade.ActionUpdate,
		Layer:   palisade.Layer{ID: "board.user.bob"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Granted || res.Decision != palisade.DecisionDenyUnknownRole {
		t.Fatalf("granted=%v decision=%s", res.Granted, res.Decision)
	}
}

func TestDirectGrantPatterns(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	if _, err := eng.Grant(ctx, "carol", "board.school.*", palisade.ActionDelete, "root"); err != nil {
		t.Fatal(err)
	}

	// The pattern covers every layer under board.school.
	ok, err := eng.CanI(ctx, "student", "carol", palisade.ActionDelete, "board.school.7")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("pattern grant did not cover board.school.7")
	}
	ok, err = eng.CanI(ctx, "student", "carol", palisade.ActionDelete, "board.school.class.101")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("pattern grant did not cover board.school.class.101")
	}

	// It does not cover the prefix's siblings, and delete does not cover
	// update.
	ok, err = eng.CanI(ctx, "student", "carol", palisade.ActionDelete, "board.user.bob")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("pattern grant leaked to board.user.bob")
	}
	ok, err = eng.CanI(ctx, "student", "carol", palisade.ActionUpdate, "board.school.7")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("delete grant satisfied update")
	}
}

func TestGrantValidation(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	cases := []struct {
		user, layer string
		action      palisade.Action
	}{
		{"", "board", palisade.ActionRead},
		{"bob", "", palisade.ActionRead},
		{"bob", "board", palisade.Action("fly")},
		{"bob", "board", palisade.ActionBlocked},
	}
	for i, c := range cases {
		if _, err := eng.Grant(ctx, c.user, c.layer, c.action, "root"); !errors.Is(err, palisade.ErrInvalidGrant) {
			t.Errorf("case %d: err = %v, want ErrInvalidGrant", i, err)
		}
	}
}

func TestBatchCheck(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	results, err := eng.BatchCheck(ctx, []*palisade.CheckRequest{
		{Subject: palisade.Subject{Role: "schoolAdmin", ID: "alice"}, Action: palisade.ActionRead, Layer: palisade.Layer{ID: "board.school"}},
		{Subject: palisade.Subject{Role: "schoolAdmin", ID: "alice"}, Action: palisade.ActionUpdate, Layer: palisade.Layer{ID: "board.school"}},
		{Subject: palisade.Subject{Role: "janitor", ID: "joe"}, Action: palisade.ActionRead, Layer: palisade.Layer{ID: "board.school"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].Granted {
		t.Errorf("read: %s", results[0].Reason)
	}
	if results[1].Granted || results[1].Decision != palisade.DecisionDenyThreshold {
		t.Errorf("update: granted=%v decision=%s", results[1].Granted, results[1].Decision)
	}
	if results[2].Granted || results[2].Decision != palisade.DecisionDenyUnknownRole {
		t.Errorf("unknown role: granted=%v decision=%s", results[2].Granted, results[2].Decision)
	}
}

func TestEnforce(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	err := eng.Enforce(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "student", ID: "bob"},
		Action:  palisade.ActionUpdate,
		Layer:   palisade.Layer{ID: "board.school"},
	})
	if !errors.Is(err, palisade.ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}

	err = eng.Enforce(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "superAdmin", ID: "root"},
		Action:  palisade.ActionUpdate,
		Layer:   palisade.Layer{ID: "board"},
	})
	if err != nil {
		t.Fatalf("superAdmin enforce: %v", err)
	}
}

func TestCacheInvalidationOnGrant(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t, palisade.WithCache(cache.NewMemory(cache.WithTTL(time.Minute))))

	// Prime the cache with a deny.
	ok, err := eng.CanI(ctx, "student", "bob", palisade.ActionUpdate, "board.school.7")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("unexpected grant")
	}

	// The grant must invalidate bob's cached deny.
	if _, err := eng.Grant(ctx, "bob", "board.school.7", palisade.ActionUpdate, "root"); err != nil {
		t.Fatal(err)
	}
	ok, err = eng.CanI(ctx, "student", "bob", palisade.ActionUpdate, "board.school.7")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("cached deny survived the grant")
	}
}

func TestDecisionLogWritten(t *testing.T) {
	ctx := testCtx()
	eng, s := newTestEngine(t)

	if _, err := eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "schoolAdmin", ID: "alice"},
		Action:  palisade.ActionRead,
		Layer:   palisade.Layer{ID: "board.school"},
	}); err != nil {
		t.Fatal(err)
	}

	logs, err := s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{TenantID: "board1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("decision logs = %d, want 1", len(logs))
	}
	e := logs[0]
	if e.Decision != string(palisade.DecisionGrant) || e.LayerID != "board.school" || e.Category != string(palisade.CategoryAdmin) {
		t.Errorf("entry = %+v", e)
	}
}

func TestDecisionLogDisabled(t *testing.T) {
	ctx := testCtx()
	disabled := false
	eng, s := newTestEngine(t, palisade.WithConfig(palisade.Config{EnableDecisionLog: &disabled}))

	if _, err := eng.Check(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{Role: "schoolAdmin", ID: "alice"},
		Action:  palisade.ActionRead,
		Layer:   palisade.Layer{ID: "board.school"},
	}); err != nil {
		t.Fatal(err)
	}

	logs, err := s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{TenantID: "board1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 0 {
		t.Fatalf("decision logs = %d, want 0", len(logs))
	}
}

func TestRevokeFor(t *testing.T) {
	ctx := testCtx()
	eng, _ := newTestEngine(t)

	// Revoking an absent grant is a no-op.
	if err := eng.RevokeFor(ctx, "bob", "board.school.7"); err != nil {
		t.Fatalf("RevokeFor absent: %v", err)
	}

	if _, err := eng.Grant(ctx, "bob", "board.school.7", palisade.ActionRead, "root"); err != nil {
		t.Fatal(err)
	}
	if err := eng.RevokeFor(ctx, "bob", "board.school.7"); err != nil {
		t.Fatal(err)
	}
	grants, err := eng.Store().ListGrantsForUser(ctx, "board1", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 0 {
		t.Fatalf("grants after revoke = %d", len(grants))
	}
}
