package engine

import (
	"context"
	"log/slog"

	"arbiter-hq/arbiter/pkg/apl/ast"
	"arbiter-hq/arbiter/pkg/policy/compiler"
)

// Engine runs fixpoint evaluations of compiled rule sets. An Engine holds no
// per-request state and is safe for concurrent use; every call to Derive or
// Evaluate works on its own fact store and derivation graph.
type Engine struct {
	logger   *slog.Logger
	resolver *Resolver
}

// New creates a new evaluation engine.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:   logger,
		resolver: NewResolver(),
	}
}

// Evaluate derives all conclusions from the facts and resolves them into a
// Decision for the given subject (empty subject considers every derived
// decision atom). The context is only consulted between fixpoint rounds; an
// abandoned evaluation mutates no external state, so cancellation simply
// discards the eventual result.
func (e *Engine) Evaluate(ctx context.Context, compiled *compiler.CompiledRuleSet, facts []ast.Atom, subject string) (*Decision, error) {
	result, err := e.Derive(ctx, compiled, facts)
	if err != nil {
		return nil, err
	}
	decision := e.resolver.Resolve(compiled, result, subject)

	if result.SkippedInstances > 0 {
		e.logger.Warn("rule instances skipped on builtin type mismatch",
			"policy_set", compiled.Name,
			"version", compiled.Version,
			"skipped", result.SkippedInstances,
		)
	}
	return decision, nil
}

// Derive computes the full set of derivable atoms: a semi-naive bottom-up
// fixpoint per stratum, in ascending stratum order. Within a stratum, rules
// are re-applied until no new atom is produced; after the first round, only
// instantiations touching at least one atom from the previous round are
// explored.
func (e *Engine) Derive(ctx context.Context, compiled *compiler.CompiledRuleSet, facts []ast.Atom) (*Result, error) {
	run := &evalRun{
		store:       NewFactStore(),
		derivations: make(map[int]*Derivation),
		bodies:      make(map[*ast.Rule]*orderedBody, len(compiled.Rules)),
	}

	// Seed with the policy set's static facts, then the request facts.
	// Duplicates collapse; the fact set is a set.
	for _, a := range compiled.StaticFacts {
		run.store.Add(a)
	}
	for _, a := range facts {
		run.store.Add(a)
	}

	for stratum := 0; stratum < compiled.StratumCount; stratum++ {
		rules := compiled.RulesByStratum[stratum]
		if len(rules) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Round 0 evaluates every rule of the stratum against the full store.
		newIDs := run.applyRules(rules, nil)
		run.rounds++

		// Subsequent rounds seed matching with the previous round's atoms.
		for len(newIDs) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			delta := run.groupByPredicate(newIDs)
			newIDs = run.applyRules(rules, delta)
			run.rounds++
		}
	}

	return &Result{
		Store:            run.store,
		Derivations:      run.derivations,
		Rounds:           run.rounds,
		SkippedInstances: run.skipped,
	}, nil
}

// evalRun is the working state of one Derive call.
type evalRun struct {
	store       *FactStore
	derivations map[int]*Derivation
	bodies      map[*ast.Rule]*orderedBody
	rounds      int
	skipped     int
}

// orderedBody is a rule body reordered for evaluation: positive atoms first
// (they bind variables), then builtins and negations in their original
// relative order. The conjunction is order-independent, so this preserves
// semantics while guaranteeing every check runs fully bound.
type orderedBody struct {
	positives []ast.Literal
	checks    []ast.Literal
}

func (run *evalRun) body(r *ast.Rule) *orderedBody {
	if b, ok := run.bodies[r]; ok {
		return b
	}
	b := &orderedBody{}
	for _, lit := range r.Body {
		if lit.Kind == ast.LiteralAtom {
			b.positives = append(b.positives, lit)
		} else {
			b.checks = append(b.checks, lit)
		}
	}
	run.bodies[r] = b
	return b
}

// groupByPredicate indexes the previous round's new atoms by predicate.
func (run *evalRun) groupByPredicate(ids []int) map[string][]int {
	delta := make(map[string][]int)
	for _, id := range ids {
		p := run.store.Atom(id).Predicate
		delta[p] = append(delta[p], id)
	}
	return delta
}

// applyRules fires every rule once per designated delta position (or once
// with no restriction when delta is nil, i.e. round 0) and returns the ids
// of newly derived atoms. Rules fire in declaration order, which fixes the
// retained derivation of every atom deterministically.
func (run *evalRun) applyRules(rules []*ast.Rule, delta map[string][]int) []int {
	var produced []int

	for _, r := range rules {
		b := run.body(r)

		if len(b.positives) == 0 {
			// Rules without positive atoms (static facts or pure-check
			// rules over constants) cannot re-fire on new atoms.
			if delta == nil {
				produced = run.fire(r, b, 0, -1, nil, make(map[string]ast.Term), nil, produced)
			}
			continue
		}

		if delta == nil {
			produced = run.fire(r, b, 0, -1, nil, make(map[string]ast.Term), nil, produced)
			continue
		}

		// Semi-naive: fire once per positive literal whose predicate gained
		// atoms, restricting that literal to the delta.
		for i, lit := range b.positives {
			if len(delta[lit.Atom.Predicate]) == 0 {
				continue
			}
			produced = run.fire(r, b, 0, i, delta, make(map[string]ast.Term), nil, produced)
		}
	}

	return produced
}

// fire recursively joins the rule's positive body literals against the store
// (literal deltaIdx against the delta only), then evaluates the checks and
// derives the head. Newly added atom ids are appended to produced.
func (run *evalRun) fire(r *ast.Rule, b *orderedBody, idx, deltaIdx int, delta map[string][]int, bindings map[string]ast.Term, supports []int, produced []int) []int {
	if idx == len(b.positives) {
		return run.finish(r, b, bindings, supports, produced)
	}

	lit := b.positives[idx]
	var candidates []int
	if idx == deltaIdx {
		candidates = delta[lit.Atom.Predicate]
	} else {
		candidates = run.store.ByPredicate(lit.Atom.Predicate)
	}

	for _, id := range candidates {
		atom := run.store.Atom(id)
		if len(atom.Terms) != len(lit.Atom.Terms) {
			continue
		}

		// Unify, tracking fresh bindings for undo.
		var bound []string
		ok := true
		for i, pattern := range lit.Atom.Terms {
			value := atom.Terms[i]
			if pattern.IsVariable() {
				if prev, exists := bindings[pattern.Var]; exists {
					if !prev.Equal(value) {
						ok = false
						break
					}
					continue
				}
				bindings[pattern.Var] = value
				bound = append(bound, pattern.Var)
				continue
			}
			if !pattern.Equal(value) {
				ok = false
				break
			}
		}

		if ok {
			produced = run.fire(r, b, idx+1, deltaIdx, delta, bindings, append(supports, id), produced)
		}
		for _, v := range bound {
			delete(bindings, v)
		}
	}

	return produced
}

// finish evaluates the rule's checks under the complete bindings and, if they
// pass, derives and records the head atom.
func (run *evalRun) finish(r *ast.Rule, b *orderedBody, bindings map[string]ast.Term, supports []int, produced []int) []int {
	for _, check := range b.checks {
		switch check.Kind {
		case ast.LiteralBuiltin:
			pass, err := evalBuiltin(check, bindings)
			if err != nil {
				// Unexpected operand type fails this rule instance only.
				run.skipped++
				return produced
			}
			if !pass {
				return produced
			}
		case ast.LiteralNegated:
			// The negated predicate's stratum is fully derived; absence is
			// definitive.
			if run.store.Contains(ground(check.Atom, bindings)) {
				return produced
			}
		}
	}

	head := ground(r.Head, bindings)
	id, added := run.store.Add(head)
	if !added {
		return produced
	}

	run.derivations[id] = &Derivation{
		Rule:     r,
		Bindings: copyBindings(bindings),
		Supports: append([]int(nil), supports...),
	}
	return append(produced, id)
}

// ground substitutes every variable of the atom with its bound constant.
// Safety checking guarantees all variables are bound.
func ground(a ast.Atom, bindings map[string]ast.Term) ast.Atom {
	if a.IsGround() {
		return a
	}
	terms := make([]ast.Term, len(a.Terms))
	for i, t := range a.Terms {
		terms[i] = resolve(t, bindings)
	}
	return ast.Atom{Predicate: a.Predicate, Terms: terms}
}

func copyBindings(bindings map[string]ast.Term) map[string]ast.Term {
	out := make(map[string]ast.Term, len(bindings))
	for k, v := range bindings {
		out[k] = v
	}
	return out
}
