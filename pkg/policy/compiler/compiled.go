package compiler

import (
	"arbiter-hq/arbiter/pkg/apl/ast"
)

// CompiledRuleSet is the immutable evaluable artifact built from one policy
// set snapshot. Once Compile returns it, nothing mutates it: many concurrent
// evaluations read it without synchronization, and a recompile produces a
// fresh instance that the manager swaps in atomically.
type CompiledRuleSet struct {
	// Name is the policy set name.
	Name string

	// Version is the monotonically increasing policy set version assigned by
	// the manager at load time. It is part of every decision cache key.
	Version int

	// Decision is the decision predicate convention of the set.
	Decision ast.DecisionSpec

	// Rules are the enabled rules in declaration order.
	Rules []*ast.Rule

	// StaticFacts are the ground atoms declared in the policy set itself,
	// merged into every evaluation's fact store.
	StaticFacts []ast.Atom

	// ByHead indexes rules by the predicate they produce.
	ByHead map[string][]*ast.Rule

	// Dependents indexes rules by the predicates their positive body atoms
	// consume. The engine uses it during semi-naive evaluation to find the
	// rules that newly derived atoms can re-trigger.
	Dependents map[string][]*ast.Rule

	// Strata maps every predicate appearing in the set to its stratum number.
	// Predicates with no negated dependencies sit in stratum 0; a predicate in
	// stratum k may depend positively on strata <= k and negatively only on
	// strata < k.
	Strata map[string]int

	// StratumCount is 1 + the highest stratum number.
	StratumCount int

	// RulesByStratum groups the rules by the stratum of their head predicate,
	// preserving declaration order within each stratum.
	RulesByStratum [][]*ast.Rule
}

// StratumOf returns the stratum of a predicate. Predicates unknown to the
// rule set (pure input predicates never mentioned in any rule) are stratum 0.
func (c *CompiledRuleSet) StratumOf(predicate string) int {
	return c.Strata[predicate]
}

// ProducedBy returns the rules that can derive atoms of the given predicate.
func (c *CompiledRuleSet) ProducedBy(predicate string) []*ast.Rule {
	return c.ByHead[predicate]
}

// RuleCount returns the number of enabled rules in the compiled set.
func (c *CompiledRuleSet) RuleCount() int {
	return len(c.Rules)
}
