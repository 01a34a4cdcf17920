// Package cache memoizes decisions keyed by (policy set version, canonical
// fact fingerprint) so that identical requests skip re-evaluation.
//
// The cache is a pure performance optimization: entries for the same key are
// computed deterministically by the engine and are interchangeable, so a
// disabled or faulty cache can never change a Decision, only latency. A
// policy set version bump invalidates old entries lazily: the version is
// part of every key, so stale entries simply become unreachable and age out
// under LRU pressure.
package cache
