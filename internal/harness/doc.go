// Package harness runs synchronization scenarios against the engine.
//
// # Scenario Format
//
// Scenarios are YAML files. Each names a set of trees, drives them through
// engine operations and asserts on the outcome:
//
//	name: commit_then_fetch
//	description: "A committed value reaches a fresh tree"
//	steps:
//	  - op: new
//	    tree: S
//	    document: docs/sample.yaml   # relative to the scenario file
//	  - op: new
//	    tree: F
//	    id: urn:ex:sm1
//	    id_short: S
//	  - op: bind
//	    tree: S
//	    locator: mem:urn:ex:sm1
//	  - op: set
//	    tree: S
//	    path: P1
//	    value: "6"
//	  - op: commit
//	    tree: S
//	  - op: fetch
//	    tree: F
//	    expect:
//	      status: clean
//	assertions:
//	  - type: value
//	    tree: F
//	    path: P1
//	    equals: "6"
//	  - type: trace_order
//	    ops: [commit, fetch]
//
// # Steps
//
//   - new: build a tree from a document file, or an empty submodel (id, id_short)
//   - bind: bind a tree to a locator
//   - commit, fetch: engine operations; fetch honours reject_dirty
//   - update: engine.UpdateFrom(tree, clone of from)
//   - set: change a property value
//   - add: add an xs:string or typed property (id_short, value_type, value) under path
//   - remove: remove the element at path
//   - fail, heal: make the memory backend fail the named operation, or stop
//   - map_value: make locator the value source of the element at path
//   - commit_value, fetch_value: move only the value of the element at path
//
// A step's expect clause names an error class (ConstraintViolation,
// KeyNotFound, TypeMismatch, BackendUnavailable, Serialization,
// UnknownBackend, ConcurrentAccess) and/or the tree status afterwards. A
// step without expect must succeed.
//
// # Assertion Types
//
//   - value: property value at tree/path
//   - status: bind status of a tree (unbound, clean, dirty)
//   - count: number of children of the namespace at tree/path
//   - equal: tree and other are deep-equal
//   - stored: property value at path in the document stored under locator
//   - trace_count: number of engine events with op
//   - trace_order: ops appear in this order (other events may intervene)
//
// # Deterministic Testing
//
// Every run uses a fresh memory backend registered as "mem" and a fresh
// logical clock, so traces are identical across runs and can be compared
// with golden files (RunWithGolden).
package harness
