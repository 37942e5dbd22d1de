// Package engine synchronizes bound model trees with their backends.
//
// A tree becomes backed when its root Identifiable is bound to a source
// locator "scheme:identifier". The engine resolves the scheme through a
// backend.Registry and moves whole trees through a backend.Serializer:
//
//	Commit      encode the bound ancestor's tree and Put it; dirty -> clean
//	Fetch       Get and decode, merge into the bound ancestor; -> clean
//	UpdateFrom  merge another tree in memory; -> dirty
//
// ARCHITECTURE:
//
// Single writer per tree. Each operation takes the tree's model.Lease for
// its whole duration. A second operation, or any setter or container
// mutation inside the tree, fails with model.ErrConcurrentAccess while the
// lease is held. Different trees may be synchronized from different
// goroutines.
//
// All or nothing. A failed Put leaves the tree dirty. A failed Get, decode
// or merge leaves the tree exactly as it was.
//
// Conflict policy. Fetch is remote-wins: local uncommitted changes are
// overwritten. WithRejectDirty (per call) or WithPolicy(RejectDirty) (per
// engine) makes Fetch refuse a dirty tree instead.
//
// Every attempt is numbered by a logical Clock and reported to the
// observer installed with WithObserver, which is how the scenario harness
// records traces.
package engine
