package dom

// Mutation describes one childList change: nodes added to or removed from
// a parent element.
type Mutation struct {
	Target  *Element
	Added   []*Element
	Removed []*Element
}

// Observer delivers batched childList mutations for one root. Batches are
// delivered when the turn that produced them ends.
type Observer struct {
	doc  *Document
	root Root
	fn   func([]Mutation)
	done bool
}

// Observe registers a mutation observer for the given root. The callback
// receives every childList mutation in the root's tree, batched per turn.
func (d *Document) Observe(root Root, fn func([]Mutation)) *Observer {
	obs := &Observer{doc: d, root: root, fn: fn}
	d.observers = append(d.observers, obs)
	return obs
}

// Disconnect stops delivery. Pending mutations for this observer are
// dropped.
func (o *Observer) Disconnect() {
	o.done = true
	for i, obs := range o.doc.observers {
		if obs == o {
			o.doc.observers = append(o.doc.observers[:i], o.doc.observers[i+1:]...)
			return
		}
	}
}

func (d *Document) recordMutation(target *Element, added, removed []*Element) {
	if len(d.observers) == 0 {
		return
	}
	d.pending = append(d.pending, Mutation{Target: target, Added: added, Removed: removed})
}

func (d *Document) deliverMutations() {
	if len(d.pending) == 0 {
		return
	}
	batch := d.pending
	d.pending = nil

	observers := make([]*Observer, len(d.observers))
	copy(observers, d.observers)
	for _, obs := range observers {
		if obs.done {
			continue
		}
		var matched []Mutation
		for _, m := range batch {
			if m.Target.Root() == obs.root {
				matched = append(matched, m)
			}
		}
		if len(matched) > 0 {
			obs.fn(matched)
		}
	}
}
