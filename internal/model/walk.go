package model

import "errors"

// SkipChildren can be returned by a Walk callback in pre-order mode to
// skip the children of the current element.
var SkipChildren = errors.New("skip children")

// Walk visits every SubmodelElement below root in post-order: children
// before their parent, sets in declaration order. root itself is visited
// when it is a SubmodelElement. A non-nil error from fn stops the walk and
// is returned.
func Walk(root Referable, fn func(SubmodelElement) error) error {
	if ns, ok := root.(Namespace); ok {
		for _, child := range Children(ns) {
			if err := Walk(child, fn); err != nil {
				return err
			}
		}
	}
	if e, ok := root.(SubmodelElement); ok {
		return fn(e)
	}
	return nil
}

// WalkPre visits root and every Referable below it in pre-order. Returning
// SkipChildren from fn skips the element's children.
func WalkPre(root Referable, fn func(Referable) error) error {
	err := fn(root)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	if err != nil {
		return err
	}
	if ns, ok := root.(Namespace); ok {
		for _, child := range Children(ns) {
			if err := WalkPre(child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// SemanticIDs returns every semantic id in the tree, pre-order, including
// duplicates.
func SemanticIDs(root Referable) []*Reference {
	var out []*Reference
	_ = WalkPre(root, func(r Referable) error {
		if hs, ok := r.(HasSemantics); ok && hs.SemanticID() != nil {
			out = append(out, hs.SemanticID())
		}
		return nil
	})
	return out
}
