package ast

import "strings"

// Atom is a predicate applied to a sequence of terms, e.g. role(X, "admin").
// An atom with no variables is ground; ground atoms supplied with a request
// are called facts.
type Atom struct {
	Predicate string   // Predicate name
	Terms     []Term   // Arguments, possibly empty
	Location  Location // Source location (zero for request-supplied facts)
}

// Arity returns the number of arguments.
func (a Atom) Arity() int {
	return len(a.Terms)
}

// IsGround returns true if no argument is a variable.
func (a Atom) IsGround() bool {
	for _, t := range a.Terms {
		if t.IsVariable() {
			return false
		}
	}
	return true
}

// Variables returns the distinct variable names appearing in the atom,
// in argument order.
func (a Atom) Variables() []string {
	var vars []string
	seen := make(map[string]bool)
	for _, t := range a.Terms {
		if t.IsVariable() && !seen[t.Var] {
			seen[t.Var] = true
			vars = append(vars, t.Var)
		}
	}
	return vars
}

// Key returns a canonical encoding of a ground atom. Two ground atoms have the
// same key iff they are the same atom, independent of how they were parsed or
// supplied. Key panics on non-ground atoms.
func (a Atom) Key() string {
	var b strings.Builder
	b.WriteString(a.Predicate)
	b.WriteByte('/')
	for i, t := range a.Terms {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key())
	}
	return b.String()
}

// String returns the APL source representation of the atom.
func (a Atom) String() string {
	if len(a.Terms) == 0 {
		return a.Predicate
	}
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		parts[i] = t.String()
	}
	return a.Predicate + "(" + strings.Join(parts, ", ") + ")"
}
