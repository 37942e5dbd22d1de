package model

// Clone returns a detached, unbound deep copy of obj.
func Clone[T Referable](obj T) T {
	return cloneReferable(obj).(T)
}

func cloneReferable(src Referable) Referable {
	dst := src.newEmpty()
	dst.copyAttrs(src)
	if ns, ok := src.(Namespace); ok {
		dsets := dst.(Namespace).namespaceSets()
		for i, ss := range ns.namespaceSets() {
			ss.copyInto(dsets[i])
		}
	}
	return dst
}

// DeepEqual reports whether a and b have the same kind, attributes and
// children, recursively. Parent links and bind state are ignored.
func DeepEqual(a, b Referable) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.KeyType() != b.KeyType() || !a.sameAttrs(b) {
		return false
	}
	an, ok := a.(Namespace)
	if !ok {
		return true
	}
	bsets := b.(Namespace).namespaceSets()
	for i, as := range an.namespaceSets() {
		if !as.sameMembers(bsets[i]) {
			return false
		}
	}
	return true
}
