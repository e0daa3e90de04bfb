package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/decisionlog"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/id"
	"github.com/classboard/palisade/relation"
	"github.com/classboard/palisade/store"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestGrantCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &grant.Grant{
		ID:       id.NewGrantID(),
		TenantID: "t1",
		AppID:    "app1",
		UserID:   "user:1",
		LayerID:  "board.school.42",
		Action:   "update",
	}

	// Create
	if err := s.CreateGrant(ctx, g); err != nil {
		t.Fatal(err)
	}

	// Get
	got, err := s.GetGrant(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Action != "update" {
		t.Fatalf("expected update, got %s", got.Action)
	}

	// Find by (user, layer)
	found, err := s.FindGrant(ctx, "t1", "user:1", "board.school.42")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.ID != g.ID {
		t.Fatal("find mismatch")
	}

	// Find miss is nil, not an error
	found, err = s.FindGrant(ctx, "t1", "user:1", "board.school.43")
	if err != nil {
		t.Fatal(err)
	}
	if found != nil {
		t.Fatal("expected nil for absent grant")
	}

	// List for user
	list, _ := s.ListGrantsForUser(ctx, "t1", "user:1")
	if len(list) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(list))
	}

	// Count
	count, _ := s.CountGrants(ctx, &grant.ListFilter{TenantID: "t1"})
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	// Delete
	if err := s.DeleteGrant(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetGrant(ctx, g.ID)
	if !errors.Is(err, palisade.ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}
}

func TestBlockCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	b := &block.Block{
		ID:         "42",
		Label:      "school",
		Attributes: map[string]any{"name": "Northside High"},
		CreatedAt:  time.Now(),
		CreatedBy:  "user:1",
	}

	// Add
	if err := s.AddBlock(ctx, "t1", b); err != nil {
		t.Fatal(err)
	}

	// Duplicate key fails
	err := s.AddBlock(ctx, "t1", b)
	if !errors.Is(err, palisade.ErrBlockExists) {
		t.Fatalf("expected ErrBlockExists, got %v", err)
	}

	// Get
	got, err := s.GetBlock(ctx, "t1", "school:42")
	if err != nil {
		t.Fatal(err)
	}
	if got.Attributes["name"] != "Northside High" {
		t.Fatal("attribute mismatch")
	}

	// Update merges attributes
	got, err = s.UpdateBlock(ctx, "t1", "school:42", map[string]any{"district": "north"}, "user:2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Attributes["name"] != "Northside High" || got.Attributes["district"] != "north" {
		t.Fatal("update did not merge attributes")
	}
	if got.UpdatedAt == nil || got.UpdatedBy != "user:2" {
		t.Fatal("update stamps missing")
	}

	// Tenant isolation
	if _, err := s.GetBlock(ctx, "t2", "school:42"); !errors.Is(err, palisade.ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound for other tenant, got %v", err)
	}

	// List by label
	list, _ := s.ListBlocks(ctx, &block.ListFilter{TenantID: "t1", Label: "school"})
	if len(list) != 1 {
		t.Fatalf("expected 1 block, got %d", len(list))
	}

	// Search
	list, _ = s.ListBlocks(ctx, &block.ListFilter{TenantID: "t1", Search: "northside"})
	if len(list) != 1 {
		t.Fatalf("expected search hit, got %d", len(list))
	}

	// Delete is idempotent
	if err := s.DeleteBlock(ctx, "t1", "school:42"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBlock(ctx, "t1", "school:42"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetBlock(ctx, "t1", "school:42"); !errors.Is(err, palisade.ErrBlockNotFound) {
		t.Fatal("expected not found after delete")
	}
}

func TestRelationUpdateAndNav(t *testing.T) {
	ctx := context.Background()
	s := New()

	// Add two classes and an admin under one school.
	err := s.UpdateRelations(ctx, "t1", "school:7", &relation.Update{
		Add: map[string][]relation.Member{
			"classes": {{ID: "class:12", Score: 1}, {ID: "class:13", Score: 1}},
			"admins":  {{ID: "user:55", Score: 1}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	members, err := s.NavRelation(ctx, "t1", "school:7", "classes", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || members["class:12"] != 1 {
		t.Fatalf("unexpected members: %v", members)
	}

	// Label filter
	err = s.UpdateRelations(ctx, "t1", "school:7", &relation.Update{
		Add: map[string][]relation.Member{
			"classes": {{ID: "archived:99", Score: 1}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	members, _ = s.NavRelation(ctx, "t1", "school:7", "classes", "class")
	if len(members) != 2 {
		t.Fatalf("label filter failed: %v", members)
	}

	// Re-adding a member overwrites its score instead of duplicating.
	err = s.UpdateRelations(ctx, "t1", "school:7", &relation.Update{
		Add: map[string][]relation.Member{
			"classes": {{ID: "class:12", Score: 5}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	members, _ = s.NavRelation(ctx, "t1", "school:7", "classes", "class")
	if len(members) != 2 || members["class:12"] != 5 {
		t.Fatalf("re-add did not overwrite score: %v", members)
	}

	// Remove is idempotent
	for i := 0; i < 2; i++ {
		err = s.UpdateRelations(ctx, "t1", "school:7", &relation.Update{
			Remove: map[string][]string{"classes": {"class:13"}},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	members, _ = s.NavRelation(ctx, "t1", "school:7", "classes", "class")
	if len(members) != 1 {
		t.Fatalf("remove failed: %v", members)
	}

	// Set replaces wholesale
	err = s.UpdateRelations(ctx, "t1", "school:7", &relation.Update{
		Set: map[string][]relation.Member{
			"classes": {{ID: "class:20", Score: 1}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	members, _ = s.NavRelation(ctx, "t1", "school:7", "classes", "")
	if len(members) != 1 || members["class:20"] != 1 {
		t.Fatalf("set did not replace: %v", members)
	}

	// Missing relation is an empty map
	members, err = s.NavRelation(ctx, "t1", "school:7", "teachers", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty map, got %v", members)
	}
}

func TestRelationInboundAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.UpdateRelations(ctx, "t1", "school:7", &relation.Update{
		Add: map[string][]relation.Member{
			"classes": {{ID: "class:12", Score: 1}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = s.UpdateRelations(ctx, "t1", "class:12", &relation.Update{
		Add: map[string][]relation.Member{
			"students": {{ID: "user:401", Score: 1}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	// class:12 is referenced by school:7 only.
	inbound, err := s.ListInboundRelations(ctx, "t1", "class:12")
	if err != nil {
		t.Fatal(err)
	}
	if len(inbound) != 1 || inbound[0].SourceID != "school:7" || inbound[0].Name != "classes" {
		t.Fatalf("unexpected inbound edges: %+v", inbound)
	}

	// Deleting class:12's own sets leaves the inbound edge intact.
	if err := s.DeleteRelations(ctx, "t1", "class:12"); err != nil {
		t.Fatal(err)
	}
	members, _ := s.NavRelation(ctx, "t1", "class:12", "students", "")
	if len(members) != 0 {
		t.Fatal("outbound sets should be gone")
	}
	inbound, _ = s.ListInboundRelations(ctx, "t1", "class:12")
	if len(inbound) != 1 {
		t.Fatal("inbound edge should survive until the caller cascades")
	}
}

func TestDecisionLogStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	old := &decisionlog.Entry{
		ID:        id.NewDecisionLogID(),
		TenantID:  "t1",
		UserID:    "user:1",
		LayerID:   "board.school.42",
		Action:    "read",
		Decision:  "grant",
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	recent := &decisionlog.Entry{
		ID:        id.NewDecisionLogID(),
		TenantID:  "t1",
		UserID:    "user:2",
		LayerID:   "board.school.42",
		Action:    "update",
		Decision:  "deny_threshold",
		CreatedAt: time.Now(),
	}
	if err := s.CreateDecisionLog(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateDecisionLog(ctx, recent); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{TenantID: "t1", Decision: "deny_threshold"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].UserID != "user:2" {
		t.Fatalf("unexpected list: %+v", list)
	}

	count, _ := s.CountDecisionLogs(ctx, &decisionlog.QueryFilter{TenantID: "t1"})
	if count != 2 {
		t.Fatalf("expected 2 entries, got %d", count)
	}

	purged, err := s.PurgeDecisionLogs(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
	count, _ = s.CountDecisionLogs(ctx, &decisionlog.QueryFilter{TenantID: "t1"})
	if count != 1 {
		t.Fatalf("expected 1 entry after purge, got %d", count)
	}
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 5; i++ {
		b := &block.Block{ID: string(rune('a' + i)), Label: "school"}
		if err := s.AddBlock(ctx, "t1", b); err != nil {
			t.Fatal(err)
		}
	}

	list, _ := s.ListBlocks(ctx, &block.ListFilter{TenantID: "t1", Limit: 2})
	if len(list) != 2 {
		t.Fatalf("expected 2, got %d", len(list))
	}
	list, _ = s.ListBlocks(ctx, &block.ListFilter{TenantID: "t1", Offset: 4})
	if len(list) != 1 {
		t.Fatalf("expected 1, got %d", len(list))
	}
	list, _ = s.ListBlocks(ctx, &block.ListFilter{TenantID: "t1", Offset: 10})
	if len(list) != 0 {
		t.Fatalf("expected 0, got %d", len(list))
	}
}
