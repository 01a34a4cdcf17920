// Package compiler translates parsed APL policy sets into the immutable,
// indexed form evaluated by pkg/policy/engine.
//
// Compilation performs the checks that must never be deferred to query time:
//
//  1. Safety (range restriction): every variable in a rule's head, in a
//     negated body atom, or in a builtin comparison must also appear in a
//     positive body atom of the same rule. Violations are rejected with
//     KindUnsafeRule.
//
//  2. Stratification: the predicate dependency graph may contain cycles
//     through positive atoms (ordinary recursion, evaluated to a fixpoint)
//     but never cycles through negation. A predicate that transitively
//     negates itself is rejected with KindUnstratifiableRecursion.
//
//  3. Decision predicate consistency: a predicate declared as both permit
//     and prohibit is rejected with KindDuplicateDecisionAtom.
//
// The output CompiledRuleSet carries an index from predicate name to the
// rules that can produce it, the stratum number of every predicate, and the
// rules grouped by stratum. It is immutable after Compile returns and safe
// for unsynchronized concurrent reads by any number of evaluations.
//
// # Basic Usage
//
//	c := compiler.New()
//	compiled, err := c.Compile(set, version)
//	if err != nil {
//	    var cerr *compiler.CompileError
//	    if errors.As(err, &cerr) {
//	        fmt.Println(cerr.Kind, cerr.RuleID)
//	    }
//	}
package compiler
