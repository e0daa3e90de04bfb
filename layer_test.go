package palisade

import "testing"

func TestResolveInheritance(t *testing.T) {
	tree := DefaultSchoolTree()

	// superAdmin has no entry below board; every inheriting layer walks up
	// to board's update rule.
	if got := tree.Resolve("board.school.class", VariantDefault, CategorySuperAdmin); got != ActionUpdate {
		t.Errorf("superAdmin at board.school.class = %s, want update", got)
	}

	// admin is explicit at board.school and wins over board's none.
	if got := tree.Resolve("board.school", VariantDefault, CategoryAdmin); got != ActionRead {
		t.Errorf("admin at board.school = %s, want read", got)
	}

	// anyone picks up the nearest explicit entry.
	if got := tree.Resolve("board.school", VariantDefault, CategoryAnyone); got != ActionRead {
		t.Errorf("anyone at board.school = %s, want read", got)
	}
}

func TestResolveSentinelWins(t *testing.T) {
	tree := NewTree()
	tree.Define("board").SetRules(VariantDefault, RuleSet{
		Rules: map[Category]Action{CategoryAdmin: ActionUpdate},
	})
	tree.Define("board.archive").SetRules(VariantDefault, RuleSet{
		Inherit: true,
		Rules:   map[Category]Action{CategoryAdmin: ActionBlocked},
	})

	// An explicit blocked entry stops the walk even though the parent would
	// grant update.
	if got := tree.Resolve("board.archive", VariantDefault, CategoryAdmin); got != ActionBlocked {
		t.Errorf("admin at board.archive = %s, want blocked", got)
	}

	// An explicit none entry is likewise terminal.
	tree.Define("board.archive").SetRules(VariantDefault, RuleSet{
		Inherit: true,
		Rules:   map[Category]Action{CategoryAdmin: ActionNone},
	})
	if got := tree.Resolve("board.archive", VariantDefault, CategoryAdmin); got != ActionNone {
		t.Errorf("admin at board.archive = %s, want none", got)
	}
}

func TestResolveNonInheritingSilence(t *testing.T) {
	tree := DefaultSchoolTree()

	// board.school's store variant names only superAdmin and does not
	// inherit; everyone else resolves to blocked without reaching board.
	if got := tree.Resolve("board.school", VariantStore, CategoryAdmin); got != ActionBlocked {
		t.Errorf("admin at board.school/store = %s, want blocked", got)
	}
	if got := tree.Resolve("board.school", VariantStore, CategorySuperAdmin); got != ActionUpdate {
		t.Errorf("superAdmin at board.school/store = %s, want update", got)
	}
}

func TestResolveVariantSilentNodeSkipped(t *testing.T) {
	tree := DefaultSchoolTree()

	// Nothing on the path from board.school.class to the root defines
	// private rules, so every node is skipped and the walk exhausts.
	if got := tree.Resolve("board.school.class", VariantPrivate, CategoryOwner); got != ActionBlocked {
		t.Errorf("owner at board.school.class/private = %s, want blocked", got)
	}

	// board.user defines private explicitly.
	if got := tree.Resolve("board.user", VariantPrivate, CategoryOwner); got != ActionUpdate {
		t.Errorf("owner at board.user/private = %s, want update", got)
	}
}

func TestResolveRuntimeLeaf(t *testing.T) {
	tree := DefaultSchoolTree()

	// "42" is not a defined node; resolution continues from board.school.
	if got := tree.Resolve("board.school.42", VariantDefault, CategoryAnyone); got != ActionRead {
		t.Errorf("anyone at board.school.42 = %s, want read", got)
	}
	if got := tree.Resolve("board.school.class.42", VariantDefault, CategoryOwner); got != ActionUpdate {
		t.Errorf("owner at board.school.class.42 = %s, want update", got)
	}
}

func TestResolveUndefinedLayer(t *testing.T) {
	tree := DefaultSchoolTree()

	if got := tree.Resolve("warehouse", VariantDefault, CategorySuperAdmin); got != ActionBlocked {
		t.Errorf("superAdmin at warehouse = %s, want blocked", got)
	}
	if got := tree.Resolve("", VariantDefault, CategorySuperAdmin); got != ActionBlocked {
		t.Errorf("superAdmin at empty layer = %s, want blocked", got)
	}
}

func TestResolveEmptyVariantDefaults(t *testing.T) {
	tree := DefaultSchoolTree()

	if got := tree.Resolve("board.school", "", CategoryAdmin); got != ActionRead {
		t.Errorf("admin at board.school with empty variant = %s, want read", got)
	}
}

func TestLookupAndPath(t *testing.T) {
	tree := DefaultSchoolTree()

	n := tree.Lookup("board.school.class")
	if n == nil {
		t.Fatal("Lookup(board.school.class) = nil")
	}
	if n.Path() != "board.school.class" {
		t.Errorf("Path() = %q", n.Path())
	}
	if tree.Lookup("board.school.42") != nil {
		t.Error("Lookup of runtime id returned a node")
	}
}

func TestParseTree(t *testing.T) {
	doc := []byte(`
layers:
  board:
    rules:
      default:
        categories:
          superAdmin: update
          anyone: none
    children:
      school:
        rules:
          default:
            inherit: true
            categories:
              admin: read
          store:
            categories:
              superAdmin: update
`)
	tree, err := ParseTree(doc)
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}

	if got := tree.Resolve("board.school", VariantDefault, CategoryAdmin); got != ActionRead {
		t.Errorf("admin at board.school = %s, want read", got)
	}
	if got := tree.Resolve("board.school", VariantDefault, CategorySuperAdmin); got != ActionUpdate {
		t.Errorf("superAdmin at board.school = %s, want update (inherited)", got)
	}
	if got := tree.Resolve("board.school", VariantStore, CategoryAdmin); got != ActionBlocked {
		t.Errorf("admin at board.school/store = %s, want blocked", got)
	}
}

func TestParseTreeRejectsUnknownNames(t *testing.T) {
	if _, err := ParseTree([]byte("layers:\n  board:\n    rules:\n      bogus:\n        categories:\n          anyone: read\n")); err == nil {
		t.Error("unknown variant accepted")
	}
	if _, err := ParseTree([]byte("layers:\n  board:\n    rules:\n      default:\n        categories:\n          wizard: read\n")); err == nil {
		t.Error("unknown category accepted")
	}
	if _, err := ParseTree([]byte("layers:\n  board:\n    rules:\n      default:\n        categories:\n          anyone: fly\n")); err == nil {
		t.Error("unknown action accepted")
	}
	if _, err := ParseTree([]byte("layers: {}\n")); err == nil {
		t.Error("empty tree accepted")
	}
}
