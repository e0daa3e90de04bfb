package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/store/memory"
)

func newTestEngine(t *testing.T) *palisade.Engine {
	t.Helper()
	eng, err := palisade.NewEngine(palisade.WithStore(memory.New()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func testCtx() context.Context {
	return palisade.WithTenant(context.Background(), "app1", "board1")
}

var (
	super = Actor{Role: "superAdmin", UserID: "root"}
	admin = Actor{Role: "schoolAdmin", UserID: "alice"}
)

func TestSchoolLifecycle(t *testing.T) {
	eng := newTestEngine(t)
	schools := NewSchools(eng, nil)
	ctx := testCtx()

	b, err := schools.Create(ctx, super, "7", "Northside", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Key() != "school:7" {
		t.Errorf("key = %q, want school:7", b.Key())
	}
	if b.Attributes["name"] != "Northside" {
		t.Errorf("name = %v", b.Attributes["name"])
	}

	// A school admin can read the school but not change it.
	if _, err := schools.Get(ctx, admin, "7"); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
	_, err = schools.Update(ctx, admin, "7", map[string]any{"name": "Southside"})
	if !errors.Is(err, palisade.ErrAccessDenied) {
		t.Fatalf("admin Update err = %v, want ErrAccessDenied", err)
	}

	got, err := schools.Update(ctx, super, "7", map[string]any{"district": "north"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Attributes["name"] != "Northside" || got.Attributes["district"] != "north" {
		t.Errorf("merged attrs = %v", got.Attributes)
	}

	if err := schools.Delete(ctx, super, "7"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := schools.Get(ctx, super, "7"); !errors.Is(err, palisade.ErrBlockNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrBlockNotFound", err)
	}
}

func TestClassroomDeleteRefusedWithStudents(t *testing.T) {
	eng := newTestEngine(t)
	schools := NewSchools(eng, nil)
	classes := NewClassrooms(eng, nil)
	ctx := testCtx()

	if _, err := schools.Create(ctx, super, "7", "Northside", nil); err != nil {
		t.Fatalf("create school: %v", err)
	}
	if _, err := classes.Create(ctx, super, "7", "101", "Math"); err != nil {
		t.Fatalf("create classroom: %v", err)
	}
	if err := classes.Enroll(ctx, super, "101", "bob", 12); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	err := classes.Delete(ctx, super, "101")
	if !errors.Is(err, palisade.ErrRelationMembers) {
		t.Fatalf("Delete err = %v, want ErrRelationMembers", err)
	}

	// The guard lives in the manager; the bare store deletes a block no
	// matter what still points at it.
	if err := classes.Unenroll(ctx, super, "101", "bob"); err != nil {
		t.Fatalf("unenroll: %v", err)
	}
	if err := classes.Delete(ctx, super, "101"); err != nil {
		t.Fatalf("Delete after unenroll: %v", err)
	}

	// The cascade removed the class from the school's roster.
	roster, err := schools.Classes(ctx, super, "7")
	if err != nil {
		t.Fatalf("Classes: %v", err)
	}
	if len(roster) != 0 {
		t.Errorf("school classes after delete = %v, want empty", roster)
	}
}

func TestStudentRemoveCascades(t *testing.T) {
	eng := newTestEngine(t)
	schools := NewSchools(eng, nil)
	classes := NewClassrooms(eng, nil)
	students := NewStudents(eng, nil)
	ctx := testCtx()

	if _, err := schools.Create(ctx, super, "7", "Northside", nil); err != nil {
		t.Fatalf("create school: %v", err)
	}
	if _, err := classes.Create(ctx, super, "7", "101", "Math"); err != nil {
		t.Fatalf("create classroom: %v", err)
	}
	if _, err := students.Register(ctx, super, "bob", "Bob", nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := classes.Enroll(ctx, super, "101", "bob", 3); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	enrolled, err := students.Classrooms(ctx, super, "bob")
	if err != nil {
		t.Fatalf("Classrooms: %v", err)
	}
	if len(enrolled) != 1 || enrolled[0] != "class:101" {
		t.Fatalf("enrolled = %v, want [class:101]", enrolled)
	}

	if err := students.Remove(ctx, super, "bob"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	roster, err := classes.Students(ctx, super, "101")
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	if len(roster) != 0 {
		t.Errorf("roster after remove = %v, want empty", roster)
	}
}

func TestAssignAdminIssuesGrant(t *testing.T) {
	eng := newTestEngine(t)
	schools := NewSchools(eng, nil)
	ctx := testCtx()

	if _, err := schools.Create(ctx, super, "7", "Northside", nil); err != nil {
		t.Fatalf("create school: %v", err)
	}

	// Before assignment the admin role caps out at read on the school.
	ok, err := eng.CanI(ctx, "schoolAdmin", "alice", palisade.ActionUpdate, "board.school.7")
	if err != nil {
		t.Fatalf("CanI: %v", err)
	}
	if ok {
		t.Fatal("update permitted before assignment")
	}

	g, err := schools.AssignAdmin(ctx, super, "7", "alice")
	if err != nil {
		t.Fatalf("AssignAdmin: %v", err)
	}
	if g.LayerID != "board.school.7" {
		t.Errorf("grant layer = %q", g.LayerID)
	}

	ok, err = eng.CanI(ctx, "schoolAdmin", "alice", palisade.ActionUpdate, "board.school.7")
	if err != nil {
		t.Fatalf("CanI after grant: %v", err)
	}
	if !ok {
		t.Fatal("update denied after assignment")
	}

	admins, err := eng.Store().NavRelation(ctx, "board1", "school:7", RelAdmins, LabelUser)
	if err != nil {
		t.Fatalf("NavRelation: %v", err)
	}
	if _, found := admins["user:alice"]; !found {
		t.Errorf("admins = %v, want user:alice", admins)
	}

	if err := schools.RemoveAdmin(ctx, super, "7", "alice"); err != nil {
		t.Fatalf("RemoveAdmin: %v", err)
	}
	ok, err = eng.CanI(ctx, "schoolAdmin", "alice", palisade.ActionUpdate, "board.school.7")
	if err != nil {
		t.Fatalf("CanI after revoke: %v", err)
	}
	if ok {
		t.Fatal("update still permitted after revoke")
	}
}
