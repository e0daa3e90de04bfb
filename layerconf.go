package palisade

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// layerDoc is the YAML document shape for a layer tree:
//
//	layers:
//	  board:
//	    rules:
//	      default:
//	        inherit: false
//	        categories:
//	          superAdmin: update
//	    children:
//	      school:
//	        rules:
//	          default:
//	            inherit: true
//	            categories:
//	              admin: read
type layerDoc struct {
	Layers map[string]layerNodeDoc `yaml:"layers"`
}

type layerNodeDoc struct {
	Rules    map[string]ruleSetDoc   `yaml:"rules,omitempty"`
	Children map[string]layerNodeDoc `yaml:"children,omitempty"`
}

type ruleSetDoc struct {
	Inherit    bool              `yaml:"inherit,omitempty"`
	Categories map[string]string `yaml:"categories"`
}

// ParseTree builds a layer tree from a YAML document.
func ParseTree(data []byte) (*Tree, error) {
	var doc layerDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("palisade: parse layer tree: %w", err)
	}
	if len(doc.Layers) == 0 {
		return nil, fmt.Errorf("palisade: parse layer tree: no layers defined")
	}

	t := NewTree()
	for name, node := range doc.Layers {
		if err := buildNode(t, name, node); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LoadTree reads and parses a layer tree YAML file.
func LoadTree(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("palisade: load layer tree: %w", err)
	}
	return ParseTree(data)
}

func buildNode(t *Tree, path string, doc layerNodeDoc) error {
	node := t.Define(path)
	for variant, rs := range doc.Rules {
		built, err := buildRuleSet(path, variant, rs)
		if err != nil {
			return err
		}
		node.SetRules(Variant(variant), built)
	}
	for name, child := range doc.Children {
		if err := buildNode(t, path+"."+name, child); err != nil {
			return err
		}
	}
	return nil
}

func buildRuleSet(path, variant string, doc ruleSetDoc) (RuleSet, error) {
	switch Variant(variant) {
	case VariantDefault, VariantPublic, VariantPrivate, VariantStore:
	default:
		return RuleSet{}, fmt.Errorf("palisade: layer %s: unknown variant %q", path, variant)
	}

	rs := RuleSet{Inherit: doc.Inherit, Rules: make(map[Category]Action, len(doc.Categories))}
	for cat, act := range doc.Categories {
		switch Category(cat) {
		case CategoryAnyone, CategoryOwner, CategoryAdmin, CategorySuperAdmin:
		default:
			return RuleSet{}, fmt.Errorf("palisade: layer %s: unknown category %q", path, cat)
		}
		action, err := ParseAction(act)
		if err != nil {
			return RuleSet{}, fmt.Errorf("palisade: layer %s: category %s: %w", path, cat, err)
		}
		rs.Rules[Category(cat)] = action
	}
	return rs, nil
}
