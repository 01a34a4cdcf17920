package compiler

import (
	"arbiter-hq/arbiter/pkg/apl/ast"
)

// Compiler validates policy sets and builds their evaluable form.
// A Compiler is stateless and safe for concurrent use.
type Compiler struct{}

// New creates a new compiler.
func New() *Compiler {
	return &Compiler{}
}

// Compile validates the policy set and returns its compiled form, tagged with
// the version the manager assigned to this snapshot. On failure it returns a
// *CompileError and the caller must keep serving the previous version.
func (c *Compiler) Compile(set *ast.PolicySet, version int) (*CompiledRuleSet, error) {
	if err := checkDecisionSpec(set); err != nil {
		return nil, err
	}

	rules := set.EnabledRules()
	for _, r := range rules {
		if err := checkSafety(set.Name, r); err != nil {
			return nil, err
		}
	}

	graph := buildGraph(rules)
	strata, badRule := graph.stratify()
	if badRule != nil {
		return nil, &CompileError{
			Kind:      KindUnstratifiableRecursion,
			PolicySet: set.Name,
			RuleID:    badRule.ID,
			Predicate: badRule.Head.Predicate,
			Message:   "predicate depends on its own negation",
			Location:  badRule.Location,
		}
	}

	compiled := &CompiledRuleSet{
		Name:        set.Name,
		Version:     version,
		Decision:    set.Decision,
		Rules:       rules,
		StaticFacts: set.Facts,
		ByHead:      make(map[string][]*ast.Rule),
		Dependents:  make(map[string][]*ast.Rule),
		Strata:      strata,
	}

	maxStratum := 0
	for _, s := range strata {
		if s > maxStratum {
			maxStratum = s
		}
	}
	compiled.StratumCount = maxStratum + 1
	compiled.RulesByStratum = make([][]*ast.Rule, compiled.StratumCount)

	for _, r := range rules {
		head := r.Head.Predicate
		compiled.ByHead[head] = append(compiled.ByHead[head], r)

		s := strata[head]
		compiled.RulesByStratum[s] = append(compiled.RulesByStratum[s], r)

		seen := make(map[string]bool)
		for _, lit := range r.Body {
			if lit.Kind != ast.LiteralAtom {
				continue
			}
			p := lit.Atom.Predicate
			if !seen[p] {
				seen[p] = true
				compiled.Dependents[p] = append(compiled.Dependents[p], r)
			}
		}
	}

	return compiled, nil
}

// checkDecisionSpec rejects predicates declared with conflicting decision
// semantics.
func checkDecisionSpec(set *ast.PolicySet) error {
	category := make(map[string]string)
	classes := []struct {
		name  string
		preds []string
	}{
		{"permit", set.Decision.Permit},
		{"prohibit", set.Decision.Prohibit},
		{"obligation", set.Decision.Obligation},
	}
	for _, class := range classes {
		for _, p := range class.preds {
			if prev, ok := category[p]; ok && prev != class.name {
				return &CompileError{
					Kind:      KindDuplicateDecisionAtom,
					PolicySet: set.Name,
					Predicate: p,
					Message:   "predicate declared as both " + prev + " and " + class.name,
					Location:  set.Location,
				}
			}
			category[p] = class.name
		}
	}
	return nil
}

// checkSafety enforces range restriction: every variable in the head, in a
// negated atom, or in a builtin comparison must appear in a positive body
// atom. A rule with no body must have a ground head.
func checkSafety(setName string, r *ast.Rule) error {
	bound := make(map[string]bool)
	for _, lit := range r.Body {
		if lit.Kind == ast.LiteralAtom {
			for _, v := range lit.Atom.Variables() {
				bound[v] = true
			}
		}
	}

	unsafe := func(v, where string) error {
		return &CompileError{
			Kind:      KindUnsafeRule,
			PolicySet: setName,
			RuleID:    r.ID,
			Predicate: r.Head.Predicate,
			Message:   "variable " + v + " in " + where + " is not bound by any positive body atom",
			Location:  r.Location,
		}
	}

	for _, v := range r.Head.Variables() {
		if !bound[v] {
			return unsafe(v, "head")
		}
	}
	for _, lit := range r.Body {
		switch lit.Kind {
		case ast.LiteralNegated:
			for _, v := range lit.Atom.Variables() {
				if !bound[v] {
					return unsafe(v, "negated atom "+lit.Atom.String())
				}
			}
		case ast.LiteralBuiltin:
			for _, v := range lit.Variables() {
				if !bound[v] {
					return unsafe(v, "comparison "+lit.String())
				}
			}
		}
	}
	return nil
}
