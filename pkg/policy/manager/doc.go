// Package manager owns the lifecycle of policy sets: loading APL documents
// from disk, compiling them, publishing versioned compiled snapshots, and hot
// reloading on change.
//
// The registry holds one immutable compiled snapshot per policy set name and
// swaps it atomically on successful recompile. In-flight evaluations keep the
// snapshot they started with; new evaluations see the new version. A failed
// compile never unpublishes anything: the previous compiled set keeps serving
// (fail-closed on compile).
//
// Versions increase monotonically per set name on every effective change
// (rule added, removed, or edited). Reloading an unchanged file does not bump
// the version, so the decision cache stays warm across no-op resyncs.
//
// Change detection is twofold: an fsnotify watcher with debouncing reacts to
// file events within milliseconds, and a cron resync rescans the policy
// directory on a schedule to heal events the watcher may have missed.
package manager
