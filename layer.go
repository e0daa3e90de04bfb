package palisade

import "strings"

// RuleSet maps viewer categories to the action level they hold at a node,
// for one variant. An explicit ActionBlocked or ActionNone entry is a
// sentinel: it wins over anything an ancestor would contribute. Inherit
// controls what happens for categories the set is silent on: when false,
// silence resolves to blocked instead of walking up.
type RuleSet struct {
	Rules   map[Category]Action
	Inherit bool
}

// LayerNode is a named node in the protected-resource tree. Nodes hold one
// RuleSet per variant and are addressed by their dot-path from the root,
// e.g. "board.school.class".
type LayerNode struct {
	name     string
	parent   *LayerNode
	children map[string]*LayerNode
	rules    map[Variant]RuleSet
}

// Name returns the node's path segment.
func (n *LayerNode) Name() string { return n.name }

// Path returns the node's full dot-path.
func (n *LayerNode) Path() string {
	if n.parent == nil || n.parent.name == "" && n.parent.parent == nil {
		return n.name
	}
	return n.parent.Path() + "." + n.name
}

// SetRules assigns the rule set for one variant. Call during tree
// construction only; the tree is shared lock-free once an engine uses it.
func (n *LayerNode) SetRules(v Variant, rs RuleSet) *LayerNode {
	if n.rules == nil {
		n.rules = make(map[Variant]RuleSet)
	}
	if rs.Rules == nil {
		rs.Rules = make(map[Category]Action)
	}
	n.rules[v] = rs
	return n
}

// Tree is the static tree of protected resource layers. It is built once
// at startup and read concurrently without locking afterwards.
type Tree struct {
	root *LayerNode
}

// NewTree creates an empty layer tree.
func NewTree() *Tree {
	return &Tree{root: &LayerNode{children: make(map[string]*LayerNode)}}
}

// Define returns the node at the given dot-path, creating it and any
// missing ancestors. Created nodes start with no rules, which makes them
// transparent to resolution until SetRules is called.
func (t *Tree) Define(path string) *LayerNode {
	node := t.root
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		child, ok := node.children[seg]
		if !ok {
			child = &LayerNode{
				name:     seg,
				parent:   node,
				children: make(map[string]*LayerNode),
			}
			node.children[seg] = child
		}
		node = child
	}
	return node
}

// Lookup returns the node at the exact dot-path, or nil.
func (t *Tree) Lookup(path string) *LayerNode {
	node := t.root
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		child, ok := node.children[seg]
		if !ok {
			return nil
		}
		node = child
	}
	if node == t.root {
		return nil
	}
	return node
}

// locate walks the path from the root and returns the deepest statically
// defined node. Unknown trailing segments (runtime ids like the "42" in
// "board.school.42") behave as implicitly-inheriting leaves with empty
// rule sets, so resolution simply continues from their static ancestor.
func (t *Tree) locate(path string) *LayerNode {
	node := t.root
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		child, ok := node.children[seg]
		if !ok {
			break
		}
		node = child
	}
	if node == t.root {
		return nil
	}
	return node
}

// Resolve returns the action level the category holds at the given layer,
// or ActionBlocked when nothing applies.
//
// Resolution order at each node, walking from the located node toward the
// root: a node silent on the variant is skipped; an explicit category entry
// (including the blocked/none sentinels) is returned as-is; a variant rule
// set without the category stops the walk with blocked unless it inherits.
func (t *Tree) Resolve(layerID string, variant Variant, category Category) Action {
	if variant == "" {
		variant = VariantDefault
	}
	for n := t.locate(layerID); n != nil && n != t.root; n = n.parent {
		rs, ok := n.rules[variant]
		if !ok {
			continue
		}
		if a, ok := rs.Rules[category]; ok {
			return a
		}
		if !rs.Inherit {
			return ActionBlocked
		}
	}
	return ActionBlocked
}

// DefaultSchoolTree returns the layer tree for the school-board hierarchy:
// board → board.user, board.school → board.school.class →
// board.school.class.student. Deployments with different hierarchies build
// their own tree or load one from YAML via ParseTree.
func DefaultSchoolTree() *Tree {
	t := NewTree()

	t.Define("board").SetRules(VariantDefault, RuleSet{
		Rules: map[Category]Action{
			CategorySuperAdmin: ActionUpdate,
			CategoryAdmin:      ActionNone,
			CategoryAnyone:     ActionNone,
		},
	})

	t.Define("board.user").SetRules(VariantDefault, RuleSet{
		Inherit: true,
		Rules: map[Category]Action{
			CategoryOwner:  ActionUpdate,
			CategoryAnyone: ActionCreate,
		},
	}).SetRules(VariantPrivate, RuleSet{
		Rules: map[Category]Action{
			CategoryOwner:      ActionUpdate,
			CategorySuperAdmin: ActionUpdate,
		},
	})

	t.Define("board.school").SetRules(VariantDefault, RuleSet{
		Inherit: true,
		Rules: map[Category]Action{
			CategoryAdmin:  ActionRead,
			CategoryAnyone: ActionRead,
		},
	}).SetRules(VariantStore, RuleSet{
		Rules: map[Category]Action{
			CategorySuperAdmin: ActionUpdate,
		},
	})

	t.Define("board.school.class").SetRules(VariantDefault, RuleSet{
		Inherit: true,
		Rules: map[Category]Action{
			CategoryAdmin: ActionUpdate,
			CategoryOwner: ActionUpdate,
		},
	})

	t.Define("board.school.class.student").SetRules(VariantDefault, RuleSet{
		Inherit: true,
		Rules: map[Category]Action{
			CategoryOwner: ActionRead,
		},
	})

	return t
}
