package parser

import (
	"testing"

	"arbiter-hq/arbiter/pkg/apl/ast"
)

func TestParseClause_Facts(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantPred  string
		wantTerms []ast.Term
	}{
		{
			name:      "string arguments",
			input:     `role("alice", "admin")`,
			wantPred:  "role",
			wantTerms: []ast.Term{ast.String("alice"), ast.String("admin")},
		},
		{
			name:      "number argument",
			input:     `spend_request("bob", 7500)`,
			wantPred:  "spend_request",
			wantTerms: []ast.Term{ast.String("bob"), ast.Number(7500)},
		},
		{
			name:      "negative and fractional numbers",
			input:     `range(-1.5, 2.25)`,
			wantPred:  "range",
			wantTerms: []ast.Term{ast.Number(-1.5), ast.Number(2.25)},
		},
		{
			name:      "boolean argument",
			input:     `flag("x", true)`,
			wantPred:  "flag",
			wantTerms: []ast.Term{ast.String("x"), ast.Boolean(true)},
		},
		{
			name:      "zero-arity atom",
			input:     `maintenance_mode`,
			wantPred:  "maintenance_mode",
			wantTerms: nil,
		},
		{
			name:      "trailing period",
			input:     `role("alice", "admin").`,
			wantPred:  "role",
			wantTerms: []ast.Term{ast.String("alice"), ast.String("admin")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head, body, err := ParseClause(tt.input, ast.Location{})
			if err != nil {
				t.Fatalf("ParseClause(%q) error: %v", tt.input, err)
			}
			if len(body) != 0 {
				t.Fatalf("expected no body, got %d literals", len(body))
			}
			if head.Predicate != tt.wantPred {
				t.Errorf("predicate = %q, want %q", head.Predicate, tt.wantPred)
			}
			if len(head.Terms) != len(tt.wantTerms) {
				t.Fatalf("got %d terms, want %d", len(head.Terms), len(tt.wantTerms))
			}
			for i, want := range tt.wantTerms {
				if !head.Terms[i].Equal(want) {
					t.Errorf("term %d = %v, want %v", i, head.Terms[i], want)
				}
			}
		})
	}
}

func TestParseClause_Rules(t *testing.T) {
	head, body, err := ParseClause(
		`allow(U, A, R) :- role(U, "admin"), request(U, A, R)`,
		ast.Location{},
	)
	if err != nil {
		t.Fatalf("ParseClause error: %v", err)
	}

	if head.Predicate != "allow" || head.Arity() != 3 {
		t.Errorf("head = %s, want allow/3", head.String())
	}
	if !head.Terms[0].IsVariable() || head.Terms[0].Var != "U" {
		t.Errorf("head term 0 = %v, want variable U", head.Terms[0])
	}

	if len(body) != 2 {
		t.Fatalf("got %d body literals, want 2", len(body))
	}
	if body[0].Kind != ast.LiteralAtom || body[0].Atom.Predicate != "role" {
		t.Errorf("body[0] = %v, want positive role atom", body[0])
	}
	if body[1].Atom.Predicate != "request" {
		t.Errorf("body[1] = %v, want request atom", body[1])
	}
}

func TestParseClause_Negation(t *testing.T) {
	_, body, err := ParseClause(
		`allow(U, "read", R) :- request(U, "read", R), not production(R)`,
		ast.Location{},
	)
	if err != nil {
		t.Fatalf("ParseClause error: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("got %d body literals, want 2", len(body))
	}
	if body[1].Kind != ast.LiteralNegated {
		t.Errorf("body[1].Kind = %v, want negated", body[1].Kind)
	}
	if body[1].Atom.Predicate != "production" {
		t.Errorf("negated atom = %v, want production", body[1].Atom)
	}
}

func TestParseClause_Builtins(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantOp  ast.BuiltinOp
		wantSet int
	}{
		{
			name:   "less equal",
			input:  `big(X) :- amount(X, N), N <= 100`,
			wantOp: ast.OpLessEqual,
		},
		{
			name:   "not equal",
			input:  `other(X, Y) :- pair(X, Y), X != Y`,
			wantOp: ast.OpNotEqual,
		},
		{
			name:    "membership",
			input:   `tier_ok(U) :- tier(U, T), T in ["gold", "platinum"]`,
			wantOp:  ast.OpIn,
			wantSet: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body, err := ParseClause(tt.input, ast.Location{})
			if err != nil {
				t.Fatalf("ParseClause(%q) error: %v", tt.input, err)
			}
			last := body[len(body)-1]
			if last.Kind != ast.LiteralBuiltin {
				t.Fatalf("last literal kind = %v, want builtin", last.Kind)
			}
			if last.Op != tt.wantOp {
				t.Errorf("op = %v, want %v", last.Op, tt.wantOp)
			}
			if len(last.Set) != tt.wantSet {
				t.Errorf("set size = %d, want %d", len(last.Set), tt.wantSet)
			}
		})
	}
}

func TestParseClause_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unquoted string constant", `role(alice, "admin")`},
		{"missing closing paren", `role("alice"`},
		{"empty argument list", `role()`},
		{"empty clause", ``},
		{"bare operator literal", `allow(U) :- U > `},
		{"variable in membership list", `ok(X) :- tier(X, T), T in [Y]`},
		{"missing body after arrow", `allow(U) :- `},
		{"garbage after clause", `role("a") role("b")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseClause(tt.input, ast.Location{})
			if err == nil {
				t.Errorf("ParseClause(%q) expected error, got none", tt.input)
			}
		})
	}
}

func TestParseFact(t *testing.T) {
	atom, err := ParseFact(`production("db1")`, ast.Location{})
	if err != nil {
		t.Fatalf("ParseFact error: %v", err)
	}
	if atom.Predicate != "production" || !atom.IsGround() {
		t.Errorf("atom = %v, want ground production/1", atom)
	}

	if _, err := ParseFact(`production(R)`, ast.Location{}); err == nil {
		t.Error("expected error for non-ground fact")
	}
	if _, err := ParseFact(`p(X) :- q(X)`, ast.Location{}); err == nil {
		t.Error("expected error for fact with body")
	}
}
