package manager

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arbiter-hq/arbiter/pkg/policy/compiler"
)

const accessPolicy = `
apl_version: "1"
name: access-control
decision:
  permit: [allow]
  prohibit: [deny]
rules:
  - id: admin-allow
    when: 'allow(U, A, R) :- role(U, "admin"), request(U, A, R)'
  - id: delete-prod-deny
    priority: 10
    when: 'deny(U, "delete", R) :- request(U, "delete", R), production(R)'
`

const billingPolicy = `
apl_version: "1"
name: billing
rules:
  - id: owner-allow
    when: 'allow(U) :- owner(U)'
`

// unsafePolicy fails compilation: V appears only in the head.
const unsafePolicy = `
apl_version: "1"
name: access-control
rules:
  - id: broken
    when: 'allow(U, V) :- role(U, "admin")'
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePolicy(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestManager_LoadDir(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "access.yaml", accessPolicy)
	writePolicy(t, dir, "billing.yml", billingPolicy)

	m := New(Config{PolicyDir: dir}, quietLogger())
	if err := m.Load(); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	infos := m.List()
	if len(infos) != 2 {
		t.Fatalf("got %d sets, want 2", len(infos))
	}
	if infos[0].Name != "access-control" || infos[1].Name != "billing" {
		t.Errorf("List order = %s, %s", infos[0].Name, infos[1].Name)
	}
	if infos[0].Version != 1 || infos[0].RuleCount != 2 {
		t.Errorf("access-control info = %+v", infos[0])
	}

	compiled, err := m.Get("access-control")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if compiled.Version != 1 {
		t.Errorf("compiled version = %d, want 1", compiled.Version)
	}
}

func TestManager_GetUnknownSet(t *testing.T) {
	m := New(Config{PolicyDir: t.TempDir()}, quietLogger())
	if err := m.Load(); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	_, err := m.Get("nope")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("Get error = %v, want *NotFoundError", err)
	}
	if nfe.Name != "nope" {
		t.Errorf("NotFoundError.Name = %q", nfe.Name)
	}
}

func TestManager_ReloadBumpsVersionOnChange(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "access.yaml", accessPolicy)

	m := New(Config{PolicyDir: dir}, quietLogger())
	if err := m.Load(); err != nil {
		t.Fatalf("initial Load: %v", err)
	}

	changed := strings.Replace(accessPolicy, "priority: 10", "priority: 20", 1)
	writePolicy(t, dir, "access.yaml", changed)
	if err := m.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	compiled, err := m.Get("access-control")
	if err != nil {
		t.Fatal(err)
	}
	if compiled.Version != 2 {
		t.Errorf("version after change = %d, want 2", compiled.Version)
	}
}

func TestManager_ReloadUnchangedIsNoOp(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "access.yaml", accessPolicy)

	var versions []int
	m := New(Config{PolicyDir: dir}, quietLogger(),
		WithObserver(func(name string, version int, err error) {
			if err == nil {
				versions = append(versions, version)
			}
		}))

	for i := 0; i < 3; i++ {
		if err := m.Load(); err != nil {
			t.Fatalf("Load %d: %v", i, err)
		}
	}

	compiled, err := m.Get("access-control")
	if err != nil {
		t.Fatal(err)
	}
	if compiled.Version != 1 {
		t.Errorf("version after identical reloads = %d, want 1", compiled.Version)
	}
	for _, v := range versions {
		if v != 1 {
			t.Errorf("observer saw version %d, want 1 throughout", v)
		}
	}
}

func TestManager_CompileFailureKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "access.yaml", accessPolicy)

	var lastErr error
	m := New(Config{PolicyDir: dir}, quietLogger(),
		WithObserver(func(name string, version int, err error) { lastErr = err }))
	if err := m.Load(); err != nil {
		t.Fatalf("initial Load: %v", err)
	}

	writePolicy(t, dir, "access.yaml", unsafePolicy)
	if err := m.Load(); err != nil {
		t.Fatalf("reload with broken set should not fail Load: %v", err)
	}

	var cerr *compiler.CompileError
	if !errors.As(lastErr, &cerr) {
		t.Fatalf("observer error = %v, want *CompileError", lastErr)
	}
	if cerr.Kind != compiler.KindUnsafeRule {
		t.Errorf("Kind = %v, want KindUnsafeRule", cerr.Kind)
	}

	// The broken set must not displace the serving snapshot.
	compiled, err := m.Get("access-control")
	if err != nil {
		t.Fatalf("previous snapshot gone: %v", err)
	}
	if compiled.Version != 1 || compiled.RuleCount() != 2 {
		t.Errorf("serving snapshot = v%d with %d rules, want v1 with 2", compiled.Version, compiled.RuleCount())
	}
}

func TestManager_RemovedFileUnpublishes(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "access.yaml", accessPolicy)
	writePolicy(t, dir, "billing.yaml", billingPolicy)

	m := New(Config{PolicyDir: dir}, quietLogger())
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(dir, "billing.yaml")); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Get("billing"); err == nil {
		t.Error("removed set still published")
	}
	if _, err := m.Get("access-control"); err != nil {
		t.Errorf("surviving set gone: %v", err)
	}
}

func TestManager_RepublishAfterRemoveBumpsVersion(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "billing.yaml", billingPolicy)

	m := New(Config{PolicyDir: dir}, quietLogger())
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(dir, "billing.yaml")); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	writePolicy(t, dir, "billing.yaml", billingPolicy)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	compiled, err := m.Get("billing")
	if err != nil {
		t.Fatal(err)
	}
	// Versions never move backwards, even across an unpublish.
	if compiled.Version != 2 {
		t.Errorf("republished version = %d, want 2", compiled.Version)
	}
}

func TestManager_LoadBytes(t *testing.T) {
	m := New(Config{}, quietLogger())

	version, err := m.LoadBytes([]byte(billingPolicy), "billing.yaml")
	if err != nil {
		t.Fatalf("LoadBytes error: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
	if _, err := m.Get("billing"); err != nil {
		t.Errorf("Get after LoadBytes: %v", err)
	}

	if _, err := m.LoadBytes([]byte("{not yaml"), "bad.yaml"); err == nil {
		t.Error("LoadBytes accepted malformed input")
	}
}

func TestLoader_DuplicateSetName(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "a.yaml", billingPolicy)
	writePolicy(t, dir, "b.yaml", billingPolicy)

	_, err := NewLoader(nil).LoadDir(dir)
	var derr *DuplicateSetError
	if !errors.As(err, &derr) {
		t.Fatalf("LoadDir error = %v, want *DuplicateSetError", err)
	}
	if derr.Name != "billing" {
		t.Errorf("DuplicateSetError.Name = %q", derr.Name)
	}
}

func TestLoader_SkipsHiddenAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "access.yaml", accessPolicy)
	writePolicy(t, dir, ".hidden.yaml", billingPolicy)
	writePolicy(t, dir, "notes.txt", "not a policy")

	sets, err := NewLoader(nil).LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}
	if len(sets) != 1 || sets[0].Name != "access-control" {
		t.Errorf("loaded %d sets, want only access-control", len(sets))
	}
}

func TestLoader_Subdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "teams")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writePolicy(t, dir, "access.yaml", accessPolicy)
	writePolicy(t, sub, "billing.yaml", billingPolicy)

	sets, err := NewLoader(nil).LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}
	if len(sets) != 2 {
		t.Errorf("loaded %d sets, want 2", len(sets))
	}
}
