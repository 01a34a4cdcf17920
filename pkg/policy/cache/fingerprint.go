package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"

	"arbiter-hq/arbiter/pkg/apl/ast"
)

// Fingerprint computes the stable cache key for one evaluation request:
// a sha256 over the policy set name, its compiled version, the requested
// subject, and the canonicalized fact set. Facts are sorted and deduplicated
// before hashing, so any permutation of the same fact set (and any duplicate
// facts, since a fact store is a set) fingerprints identically.
func Fingerprint(policySet string, version int, subject string, facts []ast.Atom) string {
	keys := make([]string, 0, len(facts))
	for _, a := range facts {
		keys = append(keys, a.Key())
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(policySet))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(version)))
	h.Write([]byte{0})
	h.Write([]byte(subject))
	h.Write([]byte{0})
	prev := ""
	for i, k := range keys {
		if i > 0 && k == prev {
			continue
		}
		prev = k
		h.Write([]byte(k))
		h.Write([]byte{'\n'})
	}

	return hex.EncodeToString(h.Sum(nil))
}
