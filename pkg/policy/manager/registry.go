package manager

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"arbiter-hq/arbiter/pkg/apl/ast"
	"arbiter-hq/arbiter/pkg/policy/compiler"
)

// Registry is the thread-safe store of published compiled policy sets.
// Each set name maps to exactly one immutable compiled snapshot; publishing
// a new snapshot swaps the pointer atomically, so an evaluation either sees
// the old compiled set or the new one, never a half-updated state.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	versions map[string]int // monotonic version counter per set name
	compiler *compiler.Compiler
}

type entry struct {
	compiled   *compiler.CompiledRuleSet
	sourceHash string
	sourceFile string
	loadedAt   time.Time
}

// SetInfo is a read-only summary of one published policy set, used by the
// introspection surface.
type SetInfo struct {
	Name       string    `json:"name"`
	Version    int       `json:"version"`
	RuleCount  int       `json:"rule_count"`
	SourceFile string    `json:"source_file,omitempty"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*entry),
		versions: make(map[string]int),
		compiler: compiler.New(),
	}
}

// Publish compiles the policy set and swaps it in as the current snapshot,
// returning the assigned version. Republishing an unchanged set is a no-op
// that returns the current version, so scheduled resyncs do not churn
// versions (and therefore do not cold the decision cache).
//
// On compile failure the previous snapshot remains published and serving.
func (r *Registry) Publish(set *ast.PolicySet) (int, error) {
	hash := sourceHash(set)

	r.mu.RLock()
	cur, exists := r.entries[set.Name]
	curVersion := r.versions[set.Name]
	r.mu.RUnlock()

	if exists && cur.sourceHash == hash {
		return cur.compiled.Version, nil
	}

	// Compile outside the lock; compilation touches no shared state.
	candidate := curVersion + 1
	compiled, err := r.compiler.Compile(set, candidate)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another publisher may have won the race; versions only move forward.
	if r.versions[set.Name] >= candidate {
		candidate = r.versions[set.Name] + 1
		compiled, err = r.compiler.Compile(set, candidate)
		if err != nil {
			return 0, err
		}
	}
	r.versions[set.Name] = candidate
	r.entries[set.Name] = &entry{
		compiled:   compiled,
		sourceHash: hash,
		sourceFile: set.SourceFile,
		loadedAt:   time.Now(),
	}
	return candidate, nil
}

// Get returns the current compiled snapshot of a policy set.
func (r *Registry) Get(name string) (*compiler.CompiledRuleSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.compiled, true
}

// Remove unpublishes a policy set (its source file disappeared). The version
// counter is retained so a later re-publish still bumps past every version
// ever served under this name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns summaries of all published sets, sorted by name.
func (r *Registry) List() []SetInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]SetInfo, 0, len(r.entries))
	for name, e := range r.entries {
		infos = append(infos, SetInfo{
			Name:       name,
			Version:    e.compiled.Version,
			RuleCount:  e.compiled.RuleCount(),
			SourceFile: e.sourceFile,
			LoadedAt:   e.loadedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Names returns the names of all published sets.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sourceHash computes a canonical digest of a policy set's effective content.
// Two sets with the same hash compile to semantically identical rule sets.
func sourceHash(set *ast.PolicySet) string {
	var b strings.Builder
	b.WriteString(set.Name)
	b.WriteByte('\n')
	b.WriteString(strings.Join(set.Decision.Permit, ","))
	b.WriteByte('\n')
	b.WriteString(strings.Join(set.Decision.Prohibit, ","))
	b.WriteByte('\n')
	b.WriteString(strings.Join(set.Decision.Obligation, ","))
	b.WriteByte('\n')
	for _, f := range set.Facts {
		b.WriteString(f.Key())
		b.WriteByte('\n')
	}
	for _, r := range set.Rules {
		fmt.Fprintf(&b, "%s|%d|%t|%s\n", r.ID, r.Priority, r.Enabled, r.String())
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
