package model

// mergePlan collects the mutations of a merge. Planning reads both trees
// and may fail; applying cannot fail, so a merge is all-or-nothing.
type mergePlan struct {
	steps []func()
}

func (p *mergePlan) add(step func()) { p.steps = append(p.steps, step) }

func (p *mergePlan) apply() {
	for _, step := range p.steps {
		step()
	}
}

// UpdateFrom makes local equal to remote while preserving the identity of
// matching children: a child of local whose id_short (or list index) and
// kind match a child of remote is updated in place; remote children
// without a match are cloned in; local children without a match are
// detached. Parent links and bind state of local are kept.
//
// On error local is unchanged. A successful update of a bound tree marks
// it dirty; engine.Fetch marks it clean again after pulling from the
// backend.
func UpdateFrom(local, remote Referable) error {
	if err := local.base().checkWritable(); err != nil {
		return err
	}
	if err := merge(local, remote); err != nil {
		return err
	}
	local.base().touch()
	return nil
}

func merge(local, remote Referable) error {
	if local.base() == remote.base() {
		return nil
	}
	if local.KeyType() != remote.KeyType() {
		return &TypeMismatchError{Expected: local.KeyType(), Actual: remote.KeyType(), Key: remote.IDShort()}
	}
	if li, ok := local.(Identifiable); ok {
		ri := remote.(Identifiable)
		if li.ID() != "" && ri.ID() != li.ID() {
			return violation("", "cannot update %q from %q", li.ID(), ri.ID())
		}
	}
	lb := local.base()
	if lb.parent != nil && lb.idShort != remote.IDShort() {
		return violation("", "cannot rename contained %s %q to %q by update", local.KeyType(), lb.idShort, remote.IDShort())
	}

	var plan mergePlan
	if err := planMerge(local, remote, &plan); err != nil {
		return err
	}
	plan.apply()
	if lb.scope != nil {
		lb.scope.rebuildSemanticIndex()
	}
	return nil
}

// planMerge records the attribute copy for local and recurses into every
// set. Child steps are recorded before the step that rebuilds their set,
// so indexes are rebuilt from final attribute values.
func planMerge(local, remote Referable, plan *mergePlan) error {
	plan.add(func() { local.copyAttrs(remote) })
	ln, ok := local.(Namespace)
	if !ok {
		return nil
	}
	rsets := remote.(Namespace).namespaceSets()
	seen := make(map[string]bool)
	for i, ls := range ln.namespaceSets() {
		names, err := ls.planMerge(rsets[i], plan)
		if err != nil {
			return err
		}
		for _, name := range names {
			if seen[name] {
				return violation("AASd-022", "update would put id_short %q twice into %s %q", name, local.KeyType(), local.IDShort())
			}
			seen[name] = true
		}
	}
	return nil
}

// planMerge plans the update of s from remote and returns the id_shorts
// the set will hold afterwards (none for a positional set).
func (s *setCore[T]) planMerge(remote nameScope, plan *mergePlan) ([]string, error) {
	r := remote.(*setCore[T])
	next := make([]T, 0, len(r.items))
	var names []string
	for i, ro := range r.items {
		if !s.positional {
			names = append(names, ro.IDShort())
		}
		lo, ok := s.match(i, ro)
		if !ok {
			next = append(next, cloneReferable(ro).(T))
			continue
		}
		if err := planMerge(lo, ro, plan); err != nil {
			return nil, err
		}
		next = append(next, lo)
	}
	plan.add(func() { s.replaceAll(next) })
	return names, nil
}

// match finds the local counterpart of the i-th remote member: by index in
// a positional set, by id_short otherwise, and only if the kinds agree.
func (s *setCore[T]) match(i int, ro T) (T, bool) {
	var lo T
	if s.positional {
		if i >= len(s.items) {
			return lo, false
		}
		lo = s.items[i]
	} else {
		var ok bool
		if lo, ok = s.byID[ro.IDShort()]; !ok {
			return lo, false
		}
	}
	if lo.KeyType() != ro.KeyType() {
		var zero T
		return zero, false
	}
	return lo, true
}
