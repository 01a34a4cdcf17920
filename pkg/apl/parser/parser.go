package parser

import (
	"fmt"
	"os"

	"arbiter-hq/arbiter/pkg/apl/ast"
)

// Parser parses APL policy set files into Abstract Syntax Trees.
// It handles YAML parsing, clause parsing, and basic structural validation.
type Parser struct {
	maxFileSize int64 // Maximum file size in bytes (default: 4MB)
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 4 * 1024 * 1024, // 4MB
	}
}

// WithMaxFileSize sets the maximum file size limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// ParseFile parses a policy set file at the given path and returns the AST.
// It returns an error if the file cannot be read, has invalid YAML syntax,
// or contains malformed clauses.
func (p *Parser) ParseFile(path string) (*ast.PolicySet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access policy file: %w", err)
	}
	if info.Size() > p.maxFileSize {
		return nil, newParseError(
			ast.Location{File: path, Line: 1, Column: 1}, "",
			"policy file exceeds maximum size (%d > %d bytes)", info.Size(), p.maxFileSize,
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read policy file: %w", err)
	}

	return p.ParseBytes(data, path)
}

// ParseBytes parses policy set YAML bytes. sourcePath is used for error
// reporting and recorded on the resulting AST.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.PolicySet, error) {
	yset, lines, err := parseYAMLBytes(data)
	if err != nil {
		return nil, newParseError(
			ast.Location{File: sourcePath, Line: 1, Column: 1}, "",
			"invalid YAML: %v", err,
		)
	}

	if yset.Name == "" {
		return nil, newParseError(
			ast.Location{File: sourcePath, Line: 1, Column: 1}, "",
			"policy set is missing required field %q", "name",
		)
	}

	set := &ast.PolicySet{
		APLVersion:  yset.APLVersion,
		Name:        yset.Name,
		Description: yset.Description,
		Decision:    buildDecisionSpec(yset.Decision),
		SourceFile:  sourcePath,
		Location:    ast.Location{File: sourcePath, Line: 1, Column: 1},
	}

	// Static facts of the set.
	for i, text := range yset.Facts {
		loc := ast.Location{File: sourcePath, Line: lines.factLine(i), Column: 1}
		atom, err := ParseFact(text, loc)
		if err != nil {
			return nil, err
		}
		set.Facts = append(set.Facts, atom)
	}

	// Rules in declaration order.
	seen := make(map[string]bool, len(yset.Rules))
	for i, yr := range yset.Rules {
		loc := ast.Location{File: sourcePath, Line: lines.ruleLine(i), Column: 1}

		rule, err := buildRule(&yr, i, loc)
		if err != nil {
			return nil, err
		}
		if seen[rule.ID] {
			return nil, newParseError(loc, "", "duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true
		set.Rules = append(set.Rules, rule)
	}

	return set, nil
}

// buildDecisionSpec applies the default decision predicate convention for any
// category the document leaves undeclared.
func buildDecisionSpec(yd yamlDecision) ast.DecisionSpec {
	spec := ast.DefaultDecisionSpec()
	if len(yd.Permit) > 0 {
		spec.Permit = yd.Permit
	}
	if len(yd.Prohibit) > 0 {
		spec.Prohibit = yd.Prohibit
	}
	if len(yd.Obligation) > 0 {
		spec.Obligation = yd.Obligation
	}
	return spec
}

// buildRule transforms one intermediate rule into its AST form, parsing the
// clause text of the `when` field.
func buildRule(yr *yamlRule, index int, loc ast.Location) (*ast.Rule, error) {
	if yr.ID == "" {
		return nil, newParseError(loc, "", "rule %d is missing required field %q", index, "id")
	}
	if yr.When == "" {
		return nil, newParseError(loc, "", "rule %q is missing required field %q", yr.ID, "when")
	}

	head, body, err := ParseClause(yr.When, loc)
	if err != nil {
		return nil, err
	}

	enabled := true
	if yr.Enabled != nil {
		enabled = *yr.Enabled
	}

	return &ast.Rule{
		ID:          yr.ID,
		Description: yr.Description,
		Enabled:     enabled,
		Priority:    yr.Priority,
		Head:        head,
		Body:        body,
		Index:       index,
		Location:    loc,
	}, nil
}
