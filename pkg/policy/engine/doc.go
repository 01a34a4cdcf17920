// Package engine evaluates compiled policy rule sets against per-request fact
// sets and renders decisions.
//
// This is the core governance mechanism of Arbiter. Evaluation is a
// bottom-up, semi-naive fixpoint over the finite domain of ground atoms:
// strata are processed in ascending order, and within a stratum rules are
// re-applied until no new atom is derivable, seeding each round only with the
// atoms the previous round produced. Negation is checked against fully
// computed lower strata, which stratification (enforced at compile time by
// pkg/policy/compiler) makes well defined.
//
// # Architecture
//
// The engine uses a three-layer design:
//
//  1. Fact Store - interns the ground atoms of one evaluation into an arena
//     with integer ids and per-predicate indexes
//  2. Evaluator - runs the stratified semi-naive fixpoint, recording one
//     derivation per atom
//  3. Conflict Resolver - reduces the derived decision atoms to a single
//     verdict (deny overrides allow, default deny) with obligations and a
//     backward-walked explanation
//
// # Evaluation Flow
//
//	facts (request) + static facts (policy set)
//	       ↓
//	Fact Store (interned, deduplicated)
//	       ↓
//	For each stratum in ascending order:
//	  Repeat until fixpoint:
//	    Apply rules whose bodies are satisfiable, seeded by the
//	    previous round's new atoms
//	       ↓
//	Conflict Resolver → Decision (verdict, obligations, explanation)
//
// # Determinism
//
// A Decision is a pure function of (compiled rule set version, fact set).
// Rules fire in declaration order within each round, the first derivation of
// an atom is the one retained for explanations, and obligations are ordered
// by rule declaration. Re-evaluating identical inputs yields a bit-identical
// Decision, which is what makes the decision cache (pkg/policy/cache) a pure
// performance optimization.
//
// # Thread Safety
//
// A CompiledRuleSet is immutable and shared; every Evaluate call builds its
// own Fact Store and derivation graph, so any number of evaluations may run
// concurrently against the same compiled set.
package engine
