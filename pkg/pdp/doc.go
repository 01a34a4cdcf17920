// Package pdp is the policy decision point facade. It ties the policy
// manager, the evaluation engine, and the decision cache into a single
// Decide entry point consumed by the HTTP server and the CLI.
//
// A decision request names one policy set, an optional subject, and a set of
// ground request facts. The facade looks up the current compiled snapshot,
// consults the decision cache (keyed by the canonical fingerprint of the
// request against that snapshot version), and falls back to a fresh
// evaluation on miss. Cached and freshly evaluated decisions are always
// identical for the same snapshot; the cache is a latency optimization,
// never a semantic one.
package pdp
