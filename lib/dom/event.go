package dom

// Event carries a dispatched DOM-style event through the listener chain.
type Event struct {
	Type   string
	Target *Element

	// CurrentTarget is the element whose listener is currently running.
	CurrentTarget *Element

	// Detail carries event payload data (form values, SSE payloads).
	Detail any

	defaultPrevented bool
	stopped          bool
}

// PreventDefault marks the event's default behavior as cancelled.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops the event from bubbling to ancestors after the
// current element's listeners finish.
func (e *Event) StopPropagation() { e.stopped = true }

// Handler is an event listener callback.
type Handler func(*Event)

// ListenerHandle identifies a registered listener for later removal.
type ListenerHandle struct {
	el *Element
	id int
}

type listener struct {
	id  int
	typ string
	fn  Handler
}

// AddEventListener registers fn for events of the given type on the
// element. Listeners fire in registration order.
func (el *Element) AddEventListener(typ string, fn Handler) ListenerHandle {
	el.doc.nextLID++
	el.listeners = append(el.listeners, listener{id: el.doc.nextLID, typ: typ, fn: fn})
	return ListenerHandle{el: el, id: el.doc.nextLID}
}

// RemoveEventListener removes a previously registered listener.
func (el *Element) RemoveEventListener(h ListenerHandle) {
	if h.el != el {
		return
	}
	for i, l := range el.listeners {
		if l.id == h.id {
			el.listeners = append(el.listeners[:i], el.listeners[i+1:]...)
			return
		}
	}
}

// Dispatch fires an event of the given type at the element, bubbling to
// ancestors within the element's root. Returns false if any listener
// called PreventDefault. Dispatch runs as a turn when called outside one.
func (el *Element) Dispatch(typ string, detail any) bool {
	evt := &Event{Type: typ, Target: el, Detail: detail}
	el.doc.Run(func() {
		el.dispatch(evt)
	})
	return !evt.defaultPrevented
}

// DispatchInTurn fires an event from code already running inside a turn.
func (el *Element) DispatchInTurn(typ string, detail any) bool {
	evt := &Event{Type: typ, Target: el, Detail: detail}
	el.dispatch(evt)
	return !evt.defaultPrevented
}

func (el *Element) dispatch(evt *Event) {
	for cur := el; cur != nil; cur = cur.Parent() {
		evt.CurrentTarget = cur
		// Snapshot so listeners added during dispatch do not fire for
		// this event.
		fired := make([]listener, len(cur.listeners))
		copy(fired, cur.listeners)
		for _, l := range fired {
			if l.typ == evt.Type {
				l.fn(evt)
			}
		}
		if evt.stopped {
			return
		}
	}
}
