package cache

import (
	"fmt"
	"testing"
	"time"

	"arbiter-hq/arbiter/pkg/apl/ast"
	"arbiter-hq/arbiter/pkg/policy/engine"
)

func atom(pred string, args ...string) ast.Atom {
	terms := make([]ast.Term, len(args))
	for i, a := range args {
		terms[i] = ast.String(a)
	}
	return ast.Atom{Predicate: pred, Terms: terms}
}

func TestFingerprint_PermutationInvariant(t *testing.T) {
	a := atom("role", "alice", "admin")
	b := atom("request", "alice", "read", "db1")
	c := atom("production", "db1")

	fp1 := Fingerprint("set", 1, "alice", []ast.Atom{a, b, c})
	fp2 := Fingerprint("set", 1, "alice", []ast.Atom{c, a, b})
	fp3 := Fingerprint("set", 1, "alice", []ast.Atom{b, c, a})

	if fp1 != fp2 || fp2 != fp3 {
		t.Errorf("permutations fingerprint differently: %s %s %s", fp1, fp2, fp3)
	}
}

func TestFingerprint_DuplicatesCollapse(t *testing.T) {
	a := atom("role", "alice", "admin")
	b := atom("request", "alice", "read", "db1")

	fp1 := Fingerprint("set", 1, "alice", []ast.Atom{a, b})
	fp2 := Fingerprint("set", 1, "alice", []ast.Atom{a, a, b, b, a})

	if fp1 != fp2 {
		t.Errorf("duplicate facts changed the fingerprint: %s != %s", fp1, fp2)
	}
}

func TestFingerprint_Discriminates(t *testing.T) {
	base := []ast.Atom{atom("role", "alice", "admin")}

	fp := Fingerprint("set", 1, "alice", base)
	variants := map[string]string{
		"different set":     Fingerprint("other", 1, "alice", base),
		"different version": Fingerprint("set", 2, "alice", base),
		"different subject": Fingerprint("set", 1, "bob", base),
		"different facts":   Fingerprint("set", 1, "alice", []ast.Atom{atom("role", "alice", "reader")}),
		"extra fact":        Fingerprint("set", 1, "alice", append(base, atom("x", "y"))),
	}
	for name, other := range variants {
		if other == fp {
			t.Errorf("%s produced the same fingerprint", name)
		}
	}
}

func TestFingerprint_TypedTermsDistinct(t *testing.T) {
	// The number 1 and the string "1" are different constants.
	numFact := ast.Atom{Predicate: "p", Terms: []ast.Term{ast.Number(1)}}
	strFact := ast.Atom{Predicate: "p", Terms: []ast.Term{ast.String("1")}}

	if Fingerprint("s", 1, "", []ast.Atom{numFact}) == Fingerprint("s", 1, "", []ast.Atom{strFact}) {
		t.Error("number and string constants fingerprint identically")
	}
}

func decision(verdict engine.Verdict) *engine.Decision {
	return &engine.Decision{
		Verdict:          verdict,
		Obligations:      []engine.Obligation{},
		Explanation:      []engine.ExplanationStep{},
		PolicySetVersion: 1,
	}
}

func TestCache_PutGet(t *testing.T) {
	c := New(0, 10)
	defer c.Close()

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache returned a value")
	}

	want := decision(engine.VerdictAllow)
	c.Put("fp1", want)

	got, ok := c.Get("fp1")
	if !ok {
		t.Fatal("Get after Put missed")
	}
	if got.Verdict != engine.VerdictAllow {
		t.Errorf("Verdict = %v, want ALLOW", got.Verdict)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := New(0, 3)
	defer c.Close()

	c.Put("a", decision(engine.VerdictAllow))
	time.Sleep(2 * time.Millisecond)
	c.Put("b", decision(engine.VerdictAllow))
	time.Sleep(2 * time.Millisecond)
	c.Put("c", decision(engine.VerdictAllow))
	time.Sleep(2 * time.Millisecond)

	// Touch "a" so "b" becomes the least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("warm-up Get missed")
	}
	time.Sleep(2 * time.Millisecond)

	c.Put("d", decision(engine.VerdictDeny))

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry b survived eviction")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("entry %s was evicted, want it retained", key)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size = %d, want 3", c.Size())
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(10*time.Millisecond, 0)
	defer c.Close()

	c.Put("fp", decision(engine.VerdictAllow))
	if _, ok := c.Get("fp"); !ok {
		t.Fatal("fresh entry missed")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("fp"); ok {
		t.Error("expired entry still served")
	}
}

func TestCache_OverwriteSameKey(t *testing.T) {
	c := New(0, 2)
	defer c.Close()

	c.Put("fp", decision(engine.VerdictAllow))
	c.Put("fp", decision(engine.VerdictDeny))

	got, ok := c.Get("fp")
	if !ok {
		t.Fatal("Get missed")
	}
	if got.Verdict != engine.VerdictDeny {
		t.Errorf("Verdict = %v, want the most recent write", got.Verdict)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(0, 0)
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("fp%d", i), decision(engine.VerdictAllow))
	}
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size after Clear = %d, want 0", c.Size())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(0, 100)
	defer c.Close()

	done := make(chan struct{})
	for w := 0; w < 8; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("fp%d", i%50)
				c.Put(key, decision(engine.VerdictAllow))
				c.Get(key)
			}
		}(w)
	}
	for w := 0; w < 8; w++ {
		<-done
	}
}
