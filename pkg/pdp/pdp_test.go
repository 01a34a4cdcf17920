package pdp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"arbiter-hq/arbiter/pkg/policy/cache"
	"arbiter-hq/arbiter/pkg/policy/engine"
	"arbiter-hq/arbiter/pkg/policy/manager"
)

const accessPolicy = `
apl_version: "1"
name: access-control
decision:
  permit: [allow]
  prohibit: [deny]
  obligation: [obligation]

facts:
  - 'production("db1")'

rules:
  - id: admin-allow
    when: 'allow(U, A, R) :- role(U, "admin"), request(U, A, R)'
  - id: delete-prod-deny
    priority: 10
    when: 'deny(U, "delete", R) :- request(U, "delete", R), production(R)'
  - id: delete-audit
    when: 'obligation("audit_log", U, R) :- request(U, "delete", R), production(R)'
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPDP(t *testing.T, opts ...Option) *PDP {
	t.Helper()
	mgr := manager.New(manager.Config{}, quietLogger())
	if _, err := mgr.LoadBytes([]byte(accessPolicy), "access-control.yaml"); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	return New(mgr, quietLogger(), opts...)
}

func TestDecide_Allow(t *testing.T) {
	p := newPDP(t)

	decision, err := p.Decide(context.Background(), Request{
		PolicySet: "access-control",
		Subject:   "alice",
		Facts: []string{
			`role("alice", "admin")`,
			`request("alice", "read", "db1")`,
		},
	})
	if err != nil {
		t.Fatalf("Decide error: %v", err)
	}
	if decision.Verdict != engine.VerdictAllow {
		t.Fatalf("Verdict = %v, want ALLOW", decision.Verdict)
	}
	if decision.PolicySetVersion != 1 {
		t.Errorf("PolicySetVersion = %d, want 1", decision.PolicySetVersion)
	}
	if len(decision.Explanation) == 0 {
		t.Error("allow decision has no explanation")
	} else if decision.Explanation[0].RuleID != "admin-allow" {
		t.Errorf("explained by %q, want admin-allow", decision.Explanation[0].RuleID)
	}
}

func TestDecide_DenyOverridesAllow(t *testing.T) {
	p := newPDP(t)

	decision, err := p.Decide(context.Background(), Request{
		PolicySet: "access-control",
		Subject:   "alice",
		Facts: []string{
			`role("alice", "admin")`,
			`request("alice", "delete", "db1")`,
		},
	})
	if err != nil {
		t.Fatalf("Decide error: %v", err)
	}
	if decision.Verdict != engine.VerdictDeny {
		t.Fatalf("Verdict = %v, want DENY", decision.Verdict)
	}
	if len(decision.Obligations) != 1 || decision.Obligations[0].RuleID != "delete-audit" {
		t.Errorf("Obligations = %+v, want one audit_log obligation", decision.Obligations)
	}
}

func TestDecide_EmptyFactsDefaultDeny(t *testing.T) {
	p := newPDP(t)

	decision, err := p.Decide(context.Background(), Request{
		PolicySet: "access-control",
		Subject:   "alice",
		Facts:     []string{},
	})
	if err != nil {
		t.Fatalf("Decide error: %v", err)
	}
	if decision.Verdict != engine.VerdictDeny {
		t.Errorf("Verdict = %v, want default DENY", decision.Verdict)
	}
	if decision.Explanation == nil || len(decision.Explanation) != 0 {
		t.Errorf("Explanation = %v, want empty", decision.Explanation)
	}
}

func TestDecide_BadRequests(t *testing.T) {
	p := newPDP(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"missing policy set", Request{Facts: []string{`role("a", "admin")`}}},
		{"malformed fact", Request{PolicySet: "access-control", Facts: []string{`role("a"`}}},
		{"non-ground fact", Request{PolicySet: "access-control", Facts: []string{`role(U, "admin")`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Decide(context.Background(), tt.req)
			var bre *BadRequestError
			if !errors.As(err, &bre) {
				t.Fatalf("error = %v, want *BadRequestError", err)
			}
		})
	}
}

func TestDecide_UnknownPolicySet(t *testing.T) {
	p := newPDP(t)

	_, err := p.Decide(context.Background(), Request{PolicySet: "nope"})
	var nfe *manager.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
}

func TestDecide_CacheTransparent(t *testing.T) {
	c := cache.New(time.Minute, 100)
	defer c.Close()
	p := newPDP(t, WithCache(c))

	req := Request{
		PolicySet: "access-control",
		Subject:   "alice",
		Facts: []string{
			`role("alice", "admin")`,
			`request("alice", "read", "db1")`,
		},
	}

	first, err := p.Decide(context.Background(), req)
	if err != nil {
		t.Fatalf("first Decide: %v", err)
	}
	if c.Size() != 1 {
		t.Fatalf("cache size = %d after first decision, want 1", c.Size())
	}

	cached, err := p.Decide(context.Background(), req)
	if err != nil {
		t.Fatalf("cached Decide: %v", err)
	}

	req.BypassCache = true
	fresh, err := p.Decide(context.Background(), req)
	if err != nil {
		t.Fatalf("bypass Decide: %v", err)
	}

	if !reflect.DeepEqual(cached, first) {
		t.Error("cached decision differs from the original")
	}
	if !reflect.DeepEqual(fresh, first) {
		t.Error("fresh evaluation differs from the cached decision")
	}
}

func TestDecide_CacheKeyedBySubjectAndFacts(t *testing.T) {
	c := cache.New(time.Minute, 100)
	defer c.Close()
	p := newPDP(t, WithCache(c))

	base := Request{
		PolicySet: "access-control",
		Subject:   "alice",
		Facts:     []string{`role("alice", "admin")`, `request("alice", "read", "db1")`},
	}
	if _, err := p.Decide(context.Background(), base); err != nil {
		t.Fatal(err)
	}

	other := base
	other.Subject = "bob"
	if _, err := p.Decide(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	if c.Size() != 2 {
		t.Errorf("cache size = %d, want separate entries per subject", c.Size())
	}

	// Same facts in a different order hit the existing entry.
	reordered := base
	reordered.Facts = []string{`request("alice", "read", "db1")`, `role("alice", "admin")`}
	if _, err := p.Decide(context.Background(), reordered); err != nil {
		t.Fatal(err)
	}
	if c.Size() != 2 {
		t.Errorf("cache size = %d after reordered facts, want 2", c.Size())
	}
}

func TestDecide_ReloadInvalidatesCache(t *testing.T) {
	c := cache.New(time.Minute, 100)
	defer c.Close()

	mgr := manager.New(manager.Config{}, quietLogger())
	if _, err := mgr.LoadBytes([]byte(accessPolicy), "access-control.yaml"); err != nil {
		t.Fatal(err)
	}
	p := New(mgr, quietLogger(), WithCache(c))

	req := Request{
		PolicySet: "access-control",
		Subject:   "alice",
		Facts:     []string{`role("alice", "admin")`, `request("alice", "read", "db1")`},
	}
	first, err := p.Decide(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Verdict != engine.VerdictAllow {
		t.Fatalf("Verdict = %v, want ALLOW", first.Verdict)
	}

	// Publish a changed set: reads are now denied for everyone.
	changed := accessPolicy + `
  - id: read-deny
    priority: 100
    when: 'deny(U, "read", R) :- request(U, "read", R)'
`
	if _, err := mgr.LoadBytes([]byte(changed), "access-control.yaml"); err != nil {
		t.Fatalf("republish: %v", err)
	}

	second, err := p.Decide(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if second.Verdict != engine.VerdictDeny {
		t.Errorf("Verdict after reload = %v, want DENY (stale cache served)", second.Verdict)
	}
	if second.PolicySetVersion != 2 {
		t.Errorf("PolicySetVersion = %d, want 2", second.PolicySetVersion)
	}
}

func TestPolicySets(t *testing.T) {
	p := newPDP(t)

	infos := p.PolicySets()
	if len(infos) != 1 || infos[0].Name != "access-control" {
		t.Errorf("PolicySets = %+v, want access-control", infos)
	}
}
