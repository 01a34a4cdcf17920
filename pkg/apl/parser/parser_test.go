package parser

import (
	"strings"
	"testing"
)

const samplePolicySet = `
apl_version: "1"
name: access-control
description: Role-based access control.

decision:
  permit: [allow]
  prohibit: [deny]

facts:
  - 'production("db1")'

rules:
  - id: admin-allow
    description: Admins may perform any action.
    when: 'allow(U, A, R) :- role(U, "admin"), request(U, A, R)'

  - id: delete-prod-deny
    priority: 10
    when: 'deny(U, "delete", R) :- request(U, "delete", R), production(R)'

  - id: disabled-rule
    enabled: false
    when: 'allow(U, "read", R) :- request(U, "read", R)'
`

func TestParseBytes(t *testing.T) {
	set, err := NewParser().ParseBytes([]byte(samplePolicySet), "access-control.yaml")
	if err != nil {
		t.Fatalf("ParseBytes error: %v", err)
	}

	if set.Name != "access-control" {
		t.Errorf("Name = %q, want access-control", set.Name)
	}
	if set.SourceFile != "access-control.yaml" {
		t.Errorf("SourceFile = %q", set.SourceFile)
	}

	// Undeclared obligation category falls back to the default.
	if !set.Decision.IsPermit("allow") || !set.Decision.IsProhibit("deny") {
		t.Errorf("declared decision predicates not recognized: %+v", set.Decision)
	}
	if !set.Decision.IsObligation("obligation") {
		t.Errorf("default obligation predicate not applied: %+v", set.Decision)
	}

	if len(set.Facts) != 1 || set.Facts[0].Predicate != "production" {
		t.Errorf("Facts = %v, want one production atom", set.Facts)
	}

	if len(set.Rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(set.Rules))
	}
	for i, r := range set.Rules {
		if r.Index != i {
			t.Errorf("rule %q Index = %d, want %d", r.ID, r.Index, i)
		}
	}

	admin := set.GetRule("admin-allow")
	if admin == nil || !admin.Enabled {
		t.Fatalf("admin-allow missing or disabled: %+v", admin)
	}
	if admin.Head.Predicate != "allow" || len(admin.Body) != 2 {
		t.Errorf("admin-allow clause = %s", admin.String())
	}

	if prio := set.GetRule("delete-prod-deny").Priority; prio != 10 {
		t.Errorf("delete-prod-deny Priority = %d, want 10", prio)
	}

	if set.GetRule("disabled-rule").Enabled {
		t.Error("disabled-rule should be disabled")
	}
	if got := len(set.EnabledRules()); got != 2 {
		t.Errorf("EnabledRules = %d, want 2", got)
	}
}

func TestParseBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:    "invalid yaml",
			input:   "name: [unclosed",
			wantMsg: "invalid YAML",
		},
		{
			name:    "missing name",
			input:   "rules:\n  - id: r1\n    when: 'p(\"a\")'\n",
			wantMsg: "missing required field \"name\"",
		},
		{
			name:    "missing rule id",
			input:   "name: s\nrules:\n  - when: 'p(\"a\")'\n",
			wantMsg: "missing required field \"id\"",
		},
		{
			name:    "missing when",
			input:   "name: s\nrules:\n  - id: r1\n",
			wantMsg: "missing required field \"when\"",
		},
		{
			name:    "duplicate rule id",
			input:   "name: s\nrules:\n  - id: r1\n    when: 'p(\"a\")'\n  - id: r1\n    when: 'p(\"b\")'\n",
			wantMsg: "duplicate rule id",
		},
		{
			name:    "non-ground static fact",
			input:   "name: s\nfacts:\n  - 'p(X)'\n",
			wantMsg: "contains variables",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().ParseBytes([]byte(tt.input), "test.yaml")
			if err == nil {
				t.Fatalf("expected error containing %q, got none", tt.wantMsg)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseBytes_RuleLineNumbers(t *testing.T) {
	input := "name: s\nrules:\n  - id: r1\n    when: 'p(\"a\"'\n"
	_, err := NewParser().ParseBytes([]byte(input), "test.yaml")
	if err == nil {
		t.Fatal("expected parse error")
	}
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if perr.Location.Line != 3 {
		t.Errorf("error line = %d, want 3 (rule entry line)", perr.Location.Line)
	}
}
