package engine

import (
	"arbiter-hq/arbiter/pkg/apl/ast"
)

// FactStore holds the ground atoms of one evaluation: the request-supplied
// facts, the policy set's static facts, and everything derived from them.
// Atoms are interned into an arena with dense integer ids, which bounds the
// memory of recursive evaluation and lets derivations reference their
// supports by id. A FactStore is owned exclusively by one evaluation and is
// never shared.
type FactStore struct {
	atoms  []ast.Atom       // id -> atom, in insertion order
	ids    map[string]int   // canonical atom key -> id
	byPred map[string][]int // predicate -> ids in insertion order
}

// NewFactStore creates an empty fact store.
func NewFactStore() *FactStore {
	return &FactStore{
		ids:    make(map[string]int),
		byPred: make(map[string][]int),
	}
}

// Add interns a ground atom and returns its id. added is false if the atom
// was already present (duplicates collapse; the store is a set).
func (s *FactStore) Add(a ast.Atom) (id int, added bool) {
	key := a.Key()
	if id, ok := s.ids[key]; ok {
		return id, false
	}
	id = len(s.atoms)
	s.atoms = append(s.atoms, a)
	s.ids[key] = id
	s.byPred[a.Predicate] = append(s.byPred[a.Predicate], id)
	return id, true
}

// Contains reports whether the ground atom is present.
func (s *FactStore) Contains(a ast.Atom) bool {
	_, ok := s.ids[a.Key()]
	return ok
}

// Lookup returns the id of a ground atom, if present.
func (s *FactStore) Lookup(a ast.Atom) (int, bool) {
	id, ok := s.ids[a.Key()]
	return id, ok
}

// Atom returns the atom with the given id.
func (s *FactStore) Atom(id int) ast.Atom {
	return s.atoms[id]
}

// ByPredicate returns the ids of all atoms of the given predicate, in
// insertion order. The returned slice is owned by the store; callers must
// not mutate it.
func (s *FactStore) ByPredicate(predicate string) []int {
	return s.byPred[predicate]
}

// Len returns the number of distinct atoms in the store.
func (s *FactStore) Len() int {
	return len(s.atoms)
}

// Derivation records how one atom was derived: the rule instance and the
// supporting atoms used in the unification that produced it. Only the first
// derivation of an atom is retained (by round, then rule declaration order);
// ties are not re-explored. Atoms supplied as input facts have no Derivation.
type Derivation struct {
	// Rule is the rule whose instantiation produced the atom.
	Rule *ast.Rule

	// Bindings maps the rule's variables to the constants of this instance.
	Bindings map[string]ast.Term

	// Supports are the ids of the positive body atoms matched by this
	// instance, in body order.
	Supports []int
}

// Result is the outcome of one fixpoint evaluation: the full derived atom
// set and the derivation trace. It is owned by the evaluation that produced
// it and discarded once the Decision is built.
type Result struct {
	// Store holds input and derived atoms.
	Store *FactStore

	// Derivations maps atom ids to their retained derivation. Input facts
	// are absent.
	Derivations map[int]*Derivation

	// Rounds is the total number of fixpoint rounds across all strata.
	Rounds int

	// SkippedInstances counts rule instances abandoned because a builtin
	// comparison received an unexpected type.
	SkippedInstances int
}

// IsInputFact reports whether the atom was supplied as input (request fact or
// static policy set fact) rather than derived by a rule.
func (r *Result) IsInputFact(id int) bool {
	_, derived := r.Derivations[id]
	return !derived
}
