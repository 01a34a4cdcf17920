package ast

import "strings"

// LiteralKind distinguishes the three body element forms of a rule.
type LiteralKind string

const (
	// LiteralAtom is a positive atom that must be derivable.
	LiteralAtom LiteralKind = "atom"

	// LiteralNegated is a negated atom (`not atom`) that must be absent from
	// the fully derived lower stratum.
	LiteralNegated LiteralKind = "negated"

	// LiteralBuiltin is a builtin comparison over bound terms.
	LiteralBuiltin LiteralKind = "builtin"
)

// BuiltinOp identifies a builtin comparison operator.
type BuiltinOp string

const (
	OpEqual        BuiltinOp = "=="
	OpNotEqual     BuiltinOp = "!="
	OpLessThan     BuiltinOp = "<"
	OpLessEqual    BuiltinOp = "<="
	OpGreaterThan  BuiltinOp = ">"
	OpGreaterEqual BuiltinOp = ">="
	OpIn           BuiltinOp = "in"
)

// Literal is one element of a rule body: a positive atom, a negated atom, or
// a builtin comparison.
type Literal struct {
	Kind LiteralKind

	// Atom is set for LiteralAtom and LiteralNegated.
	Atom Atom

	// Builtin comparison fields, set for LiteralBuiltin.
	Op    BuiltinOp
	Left  Term
	Right Term   // Right operand for binary operators
	Set   []Term // Member list for OpIn

	Location Location
}

// Variables returns the distinct variable names appearing in the literal.
func (l Literal) Variables() []string {
	switch l.Kind {
	case LiteralAtom, LiteralNegated:
		return l.Atom.Variables()
	case LiteralBuiltin:
		var vars []string
		seen := make(map[string]bool)
		add := func(t Term) {
			if t.IsVariable() && !seen[t.Var] {
				seen[t.Var] = true
				vars = append(vars, t.Var)
			}
		}
		add(l.Left)
		add(l.Right)
		for _, t := range l.Set {
			add(t)
		}
		return vars
	}
	return nil
}

// String returns the APL source representation of the literal.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralAtom:
		return l.Atom.String()
	case LiteralNegated:
		return "not " + l.Atom.String()
	case LiteralBuiltin:
		if l.Op == OpIn {
			parts := make([]string, len(l.Set))
			for i, t := range l.Set {
				parts[i] = t.String()
			}
			return l.Left.String() + " in [" + strings.Join(parts, ", ") + "]"
		}
		return l.Left.String() + " " + string(l.Op) + " " + l.Right.String()
	}
	return "<invalid>"
}

// Rule is a single Horn clause `head :- body` belonging to one policy set.
// A rule with an empty body is a static fact of the set (its head must be
// ground). Rules are evaluated bottom-up; declaration order matters only for
// explanation tie-breaking, never for the derived atom set.
type Rule struct {
	ID          string   // Unique rule identifier within the policy set
	Description string   // Human-readable description
	Enabled     bool     // Whether the rule participates in evaluation
	Priority    int      // Explicit priority for conflict tie-breaking (default 0)
	Head        Atom     // Head atom, possibly with variables
	Body        []Literal // Body literals; empty for static facts
	Index       int      // Declaration index within the policy set (assigned on parse)
	Location    Location // Source location
}

// IsFact returns true if the rule has no body (a static fact of the set).
func (r *Rule) IsFact() bool {
	return len(r.Body) == 0
}

// HasNegation returns true if any body literal is negated.
func (r *Rule) HasNegation() bool {
	for _, l := range r.Body {
		if l.Kind == LiteralNegated {
			return true
		}
	}
	return false
}

// PositiveBody returns the positive atom literals of the body, in order.
func (r *Rule) PositiveBody() []Literal {
	var out []Literal
	for _, l := range r.Body {
		if l.Kind == LiteralAtom {
			out = append(out, l)
		}
	}
	return out
}

// String returns the APL source representation of the clause.
func (r *Rule) String() string {
	if r.IsFact() {
		return r.Head.String() + "."
	}
	parts := make([]string, len(r.Body))
	for i, l := range r.Body {
		parts[i] = l.String()
	}
	return r.Head.String() + " :- " + strings.Join(parts, ", ") + "."
}
