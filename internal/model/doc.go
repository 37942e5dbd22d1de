// Package model provides the Asset Administration Shell object graph and its
// containment rules.
//
// This package is the foundational layer: every other internal package
// imports model; model imports nothing internal.
//
// The package owns three things:
//   - Key and Reference: typed address chains resolved against a Provider
//   - Namespace sets: the only place parent/child links are created or
//     broken; all id_short uniqueness and index coherence checks live there
//   - Bind state: the (locator, dirty) pair of a bound Identifiable, the
//     Lease that grants one operation exclusive use of a bound tree, and the
//     plan-then-apply merge behind UpdateFrom
//
// Invariants, checked at every mutation boundary:
//   - Within one parent, id_short values are unique across all of the
//     parent's namespace sets
//   - A Referable's parent is exactly the namespace whose set holds it
//   - Positional and keyed views of an ordered set always agree
//   - Only an Identifiable carries a bind state
//
// Every mutating operation either succeeds completely or returns an error and
// leaves the tree untouched.
//
// Concurrency: a tree is single-writer. Callers serialize mutation, commit
// and fetch against one tree. A held Lease is detected by mutators, which then
// fail with ErrConcurrentAccess, but the package does no locking of its own.
package model
