package ast

import (
	"fmt"
	"strconv"
)

// TermKind represents the kind of a term.
// APL has a small, strict type system with no automatic coercion.
type TermKind string

const (
	TermString   TermKind = "string"
	TermNumber   TermKind = "number"
	TermBoolean  TermKind = "boolean"
	TermVariable TermKind = "variable"
)

// Term is an atomic value appearing as an argument of an atom or in a builtin
// comparison. A term is either a constant (string, number, boolean) or a
// variable scoped to one rule. Terms are immutable once constructed.
type Term struct {
	Kind TermKind // Kind of the term

	Str  string  // Value if Kind is TermString
	Num  float64 // Value if Kind is TermNumber
	Bool bool    // Value if Kind is TermBoolean
	Var  string  // Variable name if Kind is TermVariable
}

// String constructs a string constant term.
func String(v string) Term {
	return Term{Kind: TermString, Str: v}
}

// Number constructs a numeric constant term.
func Number(v float64) Term {
	return Term{Kind: TermNumber, Num: v}
}

// Boolean constructs a boolean constant term.
func Boolean(v bool) Term {
	return Term{Kind: TermBoolean, Bool: v}
}

// Variable constructs a variable term.
func Variable(name string) Term {
	return Term{Kind: TermVariable, Var: name}
}

// IsVariable returns true if the term is a variable.
func (t Term) IsVariable() bool {
	return t.Kind == TermVariable
}

// IsConstant returns true if the term is a ground constant.
func (t Term) IsConstant() bool {
	return t.Kind != TermVariable
}

// Equal reports whether two terms are identical. Variables are equal only when
// their names match; constants must match in both kind and value.
func (t Term) Equal(o Term) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TermString:
		return t.Str == o.Str
	case TermNumber:
		return t.Num == o.Num
	case TermBoolean:
		return t.Bool == o.Bool
	case TermVariable:
		return t.Var == o.Var
	}
	return false
}

// Key returns a canonical, collision-free encoding of a constant term.
// It is used to build fact fingerprints and the interned atom arena, so the
// encoding must be stable across processes and fact orderings.
// Key panics if called on a variable; callers guarantee groundness.
func (t Term) Key() string {
	switch t.Kind {
	case TermString:
		return "s:" + strconv.Quote(t.Str)
	case TermNumber:
		return "n:" + strconv.FormatFloat(t.Num, 'g', -1, 64)
	case TermBoolean:
		return "b:" + strconv.FormatBool(t.Bool)
	}
	panic(fmt.Sprintf("ast: Key called on non-constant term %s", t))
}

// String returns the APL source representation of the term.
func (t Term) String() string {
	switch t.Kind {
	case TermString:
		return strconv.Quote(t.Str)
	case TermNumber:
		return strconv.FormatFloat(t.Num, 'g', -1, 64)
	case TermBoolean:
		return strconv.FormatBool(t.Bool)
	case TermVariable:
		return t.Var
	}
	return "<invalid>"
}

// Value returns the constant value as an untyped interface, suitable for
// serialization in explanations. Variables return their name.
func (t Term) Value() interface{} {
	switch t.Kind {
	case TermString:
		return t.Str
	case TermNumber:
		return t.Num
	case TermBoolean:
		return t.Bool
	case TermVariable:
		return t.Var
	}
	return nil
}
