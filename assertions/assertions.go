// Package assertions hosts the debug-only consistency checks described in
// spec.md §7 ("Validation"): bound equality, dependents-counter equality,
// inactive-index invariants, listener presence. They are guarded behind the
// Enabled constant so that a release build never pays for them, mirroring
// the original implementation's cfg!(debug_assertions) gates.
//
// Build with -tags tausplit_debug to turn them on.
package assertions

// Enabled is true only in builds tagged tausplit_debug. Callers should wrap
// every validation call in `if assertions.Enabled { ... }` so the dead branch
// is compiled out entirely in a normal build.
const Enabled = enabled
