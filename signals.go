package hywire

import "strings"

// Signals is a path-addressable tree of JSON-shaped values with change
// subscriptions. Paths are dot-separated strings ("user.name"); writes
// create intermediate objects as needed, overwriting any non-object value
// found along the way.
//
// Subscribers are notified through a drained queue: a write performed
// inside a subscriber callback is queued and delivered after the current
// notification completes, so re-entrant writes can never recurse the call
// stack.
//
// A Signals is not safe for unsynchronized concurrent use. The runtime
// serializes all access through document turns.
type Signals struct {
	data map[string]any

	subs      []signalSub
	nextSubID int

	queue    []signalChange
	draining bool
}

type signalSub struct {
	id int
	fn func(path string, value any)
}

type signalChange struct {
	path  string
	value any
}

// NewSignals creates an empty signal tree.
func NewSignals() *Signals {
	return &Signals{data: make(map[string]any)}
}

// Get returns the value at a dot-separated path. ok is false when any
// segment along the path is missing or not an object.
func (s *Signals) Get(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	segs := strings.Split(path, ".")
	var cur any = s.data
	for _, seg := range segs {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes a value at a dot-separated path, creating intermediate
// objects as needed. Intermediate non-object values are replaced with
// empty objects. An empty path is a no-op. Subscribers are notified with
// the path and the written value.
func (s *Signals) Set(path string, value any) {
	if path == "" {
		return
	}
	segs := strings.Split(path, ".")
	obj := s.data
	for _, seg := range segs[:len(segs)-1] {
		next, ok := obj[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			obj[seg] = next
		}
		obj = next
	}
	obj[segs[len(segs)-1]] = value
	s.notify(path, value)
}

// Merge deep-merges a nested object into the tree. Each leaf value
// (anything that is not a nested object, arrays included) overwrites the
// corresponding location and notifies subscribers with its full dotted
// path. Nested objects merge recursively, replacing a non-object target
// with an empty object first.
func (s *Signals) Merge(patch map[string]any) {
	s.mergeInto(s.data, patch, "")
}

func (s *Signals) mergeInto(target, patch map[string]any, prefix string) {
	for key, value := range patch {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			sub, ok := target[key].(map[string]any)
			if !ok {
				sub = make(map[string]any)
				target[key] = sub
			}
			s.mergeInto(sub, nested, path)
			continue
		}
		target[key] = value
		s.notify(path, value)
	}
}

// Subscribe registers a change callback and returns its unsubscribe
// function. Callbacks fire in registration order.
func (s *Signals) Subscribe(fn func(path string, value any)) func() {
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, signalSub{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// notify publishes a change to the queue and drains it unless a drain is
// already in progress higher on the stack.
func (s *Signals) notify(path string, value any) {
	s.queue = append(s.queue, signalChange{path: path, value: value})
	if s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()
	for len(s.queue) > 0 {
		change := s.queue[0]
		s.queue = s.queue[1:]
		subs := make([]signalSub, len(s.subs))
		copy(subs, s.subs)
		for _, sub := range subs {
			sub.fn(change.path, change.value)
		}
	}
}

// Snapshot returns a deep copy of the signal tree.
func (s *Signals) Snapshot() map[string]any {
	return copyTree(s.data)
}

func copyTree(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		switch v := v.(type) {
		case map[string]any:
			out[k] = copyTree(v)
		case []any:
			cp := make([]any, len(v))
			for i, e := range v {
				if m, ok := e.(map[string]any); ok {
					cp[i] = copyTree(m)
				} else {
					cp[i] = e
				}
			}
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}
