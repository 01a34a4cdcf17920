package engine

import (
	"math"
	"sort"

	"arbiter-hq/arbiter/pkg/apl/ast"
	"arbiter-hq/arbiter/pkg/policy/compiler"
)

// Resolver reduces the derived decision atoms of one evaluation to a single
// verdict. The precedence is fixed: any prohibit atom wins over any permit
// atom regardless of rule priorities ("deny overrides"), and the absence of
// both is a deny. Priorities and declaration order only break ties within a
// category, to select which derivation explains the verdict.
type Resolver struct{}

// NewResolver creates a new conflict resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve renders the Decision for the given subject. An empty subject
// considers every derived decision atom; otherwise only atoms whose first
// argument equals the subject participate.
func (r *Resolver) Resolve(compiled *compiler.CompiledRuleSet, result *Result, subject string) *Decision {
	decision := &Decision{
		Verdict:          VerdictDeny,
		Obligations:      []Obligation{},
		Explanation:      []ExplanationStep{},
		PolicySetVersion: compiled.Version,
	}

	if winner, ok := r.pickWinner(compiled.Decision.Prohibit, result, subject); ok {
		decision.Verdict = VerdictDeny
		decision.Explanation = BuildExplanation(result, winner)
	} else if winner, ok := r.pickWinner(compiled.Decision.Permit, result, subject); ok {
		decision.Verdict = VerdictAllow
		decision.Explanation = BuildExplanation(result, winner)
	}
	// With neither a prohibit nor a permit derivable, the default deny
	// stands with an empty explanation.

	decision.Obligations = r.collectObligations(compiled, result, subject)
	return decision
}

// pickWinner selects the atom whose derivation explains the verdict for one
// decision category: highest rule priority first, then rule declaration
// order, then atom insertion order. Decision atoms supplied as input facts
// rank after every rule-derived atom.
func (r *Resolver) pickWinner(predicates []string, result *Result, subject string) (int, bool) {
	winner := -1
	var winPrio, winIndex int

	for _, pred := range predicates {
		for _, id := range result.Store.ByPredicate(pred) {
			if !matchesSubject(result.Store.Atom(id), subject) {
				continue
			}
			prio, index := r.rank(result, id)
			if winner == -1 || prio > winPrio || (prio == winPrio && index < winIndex) {
				winner, winPrio, winIndex = id, prio, index
			}
		}
	}
	return winner, winner != -1
}

// rank returns the (priority, declaration index) of the derivation behind an
// atom. Input facts have no deriving rule: priority 0, ranked last.
func (r *Resolver) rank(result *Result, id int) (priority, index int) {
	if d, ok := result.Derivations[id]; ok {
		return d.Rule.Priority, d.Rule.Index
	}
	return 0, math.MaxInt
}

// collectObligations gathers the obligation atoms attached to the subject's
// verdict, ordered by rule declaration then atom insertion.
func (r *Resolver) collectObligations(compiled *compiler.CompiledRuleSet, result *Result, subject string) []Obligation {
	type ranked struct {
		id    int
		index int
	}
	var found []ranked

	for _, pred := range compiled.Decision.Obligation {
		for _, id := range result.Store.ByPredicate(pred) {
			if !matchesSubject(result.Store.Atom(id), subject) {
				continue
			}
			_, index := r.rank(result, id)
			found = append(found, ranked{id: id, index: index})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].index != found[j].index {
			return found[i].index < found[j].index
		}
		return found[i].id < found[j].id
	})

	obligations := make([]Obligation, 0, len(found))
	for _, f := range found {
		atom := result.Store.Atom(f.id)
		args := make([]interface{}, len(atom.Terms))
		for i, t := range atom.Terms {
			args[i] = t.Value()
		}
		ob := Obligation{Predicate: atom.Predicate, Args: args}
		if d, ok := result.Derivations[f.id]; ok {
			ob.RuleID = d.Rule.ID
		}
		obligations = append(obligations, ob)
	}
	return obligations
}

// matchesSubject reports whether a decision atom concerns the subject. The
// convention is positional: the subject is the first argument.
func matchesSubject(atom ast.Atom, subject string) bool {
	if subject == "" {
		return true
	}
	if len(atom.Terms) == 0 {
		return false
	}
	first := atom.Terms[0]
	return first.Kind == ast.TermString && first.Str == subject
}
