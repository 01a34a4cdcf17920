package engine

import (
	"fmt"

	"arbiter-hq/arbiter/pkg/apl/ast"
)

// builtinTypeError signals that a builtin comparison received operands of an
// unexpected type. It fails only the rule instance being evaluated, never the
// whole evaluation: the caller skips the instance and counts it.
type builtinTypeError struct {
	op    ast.BuiltinOp
	left  ast.Term
	right ast.Term
}

func (e *builtinTypeError) Error() string {
	return fmt.Sprintf("builtin %s: incompatible operands %s and %s", e.op, e.left, e.right)
}

// evalBuiltin evaluates a builtin comparison literal under the given
// bindings. All variables are bound at this point: the compiler's safety
// check guarantees it, and the evaluator orders builtins after the positive
// body atoms that bind them.
func evalBuiltin(lit ast.Literal, bindings map[string]ast.Term) (bool, error) {
	left := resolve(lit.Left, bindings)

	if lit.Op == ast.OpIn {
		for _, elem := range lit.Set {
			if left.Equal(elem) {
				return true, nil
			}
		}
		return false, nil
	}

	right := resolve(lit.Right, bindings)

	switch lit.Op {
	case ast.OpEqual:
		return left.Equal(right), nil
	case ast.OpNotEqual:
		return !left.Equal(right), nil
	}

	// Ordering operators: numbers compare numerically, strings
	// lexicographically. Mixed kinds or booleans are a type error.
	switch {
	case left.Kind == ast.TermNumber && right.Kind == ast.TermNumber:
		return compareOrdered(lit.Op, left.Num, right.Num), nil
	case left.Kind == ast.TermString && right.Kind == ast.TermString:
		return compareOrdered(lit.Op, left.Str, right.Str), nil
	}
	return false, &builtinTypeError{op: lit.Op, left: left, right: right}
}

// resolve substitutes a bound variable with its constant. Constants pass
// through unchanged.
func resolve(t ast.Term, bindings map[string]ast.Term) ast.Term {
	if t.IsVariable() {
		if v, ok := bindings[t.Var]; ok {
			return v
		}
	}
	return t
}

func compareOrdered[T float64 | string](op ast.BuiltinOp, a, b T) bool {
	switch op {
	case ast.OpLessThan:
		return a < b
	case ast.OpLessEqual:
		return a <= b
	case ast.OpGreaterThan:
		return a > b
	case ast.OpGreaterEqual:
		return a >= b
	}
	return false
}
