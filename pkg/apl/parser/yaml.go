package parser

import (
	"gopkg.in/yaml.v3"
)

// yamlPolicySet represents the intermediate structure for parsing YAML policy
// set documents. It matches the on-disk structure before transformation to AST.
type yamlPolicySet struct {
	APLVersion  string       `yaml:"apl_version"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Decision    yamlDecision `yaml:"decision"`
	Facts       []string     `yaml:"facts"`
	Rules       []yamlRule   `yaml:"rules"`
}

// yamlDecision declares the decision predicate convention of the set.
type yamlDecision struct {
	Permit     []string `yaml:"permit"`
	Prohibit   []string `yaml:"prohibit"`
	Obligation []string `yaml:"obligation"`
}

// yamlRule represents an intermediate rule structure.
type yamlRule struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Enabled     *bool  `yaml:"enabled"` // Pointer to distinguish unset vs false
	Priority    int    `yaml:"priority"`
	When        string `yaml:"when"`
}

// yamlLines holds the source line numbers of the rule and fact entries,
// recovered from the YAML node tree for error reporting.
type yamlLines struct {
	rules []int
	facts []int
}

// parseYAMLBytes parses YAML bytes into the intermediate structure and
// recovers per-entry line numbers.
func parseYAMLBytes(data []byte) (*yamlPolicySet, *yamlLines, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, err
	}

	var set yamlPolicySet
	if err := root.Decode(&set); err != nil {
		return nil, nil, err
	}

	return &set, collectLines(&root), nil
}

// collectLines walks the document mapping and records the line of each entry
// in the "rules" and "facts" sequences.
func collectLines(root *yaml.Node) *yamlLines {
	lines := &yamlLines{}

	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return lines
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		value := doc.Content[i+1]
		if value.Kind != yaml.SequenceNode {
			continue
		}
		switch key.Value {
		case "rules":
			for _, item := range value.Content {
				lines.rules = append(lines.rules, item.Line)
			}
		case "facts":
			for _, item := range value.Content {
				lines.facts = append(lines.facts, item.Line)
			}
		}
	}
	return lines
}

func (l *yamlLines) ruleLine(i int) int {
	if i < len(l.rules) {
		return l.rules[i]
	}
	return 0
}

func (l *yamlLines) factLine(i int) int {
	if i < len(l.facts) {
		return l.facts[i]
	}
	return 0
}
