package hywire

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/hywire/hywire/lib/dom"
)

// Runtime is the per-root directive engine: a signal store, wiring state,
// in-flight action bookkeeping, and SSE subscriptions for one document or
// shadow root. Create runtimes with Enhance.
type Runtime struct {
	root   dom.Root
	doc    *dom.Document
	opts   Options
	store  *Signals
	logger *slog.Logger
	client *http.Client

	observer    *dom.Observer
	unsubscribe func()
	scheduled   bool

	wired         map[*dom.Element]map[string]wiredListener
	signalsSeen   map[*dom.Element]string
	sse           map[*dom.Element]*sseRecord
	gens          map[*dom.Element]uint64
	compileWarned map[string]bool

	inflight sync.WaitGroup
}

type wiredListener struct {
	text   string
	handle dom.ListenerHandle
}

// runtimes is the explicit ownership registry: each root owns at most one
// runtime, created on first Enhance and removed by Release.
var runtimes = struct {
	sync.Mutex
	m map[dom.Root]*Runtime
}{m: make(map[dom.Root]*Runtime)}

// Enhance activates (or refreshes) the directive runtime on a root.
//
// The first call for a root creates its runtime: data-signals blocks are
// merged, event and bind listeners wired, reactive directives applied,
// SSE subscriptions opened, and a mutation observer started that keeps
// all of the above current as the tree changes. Shadow roots found
// beneath the root are enhanced recursively with the same options, each
// with its own runtime and signal store.
//
// Subsequent calls reuse the existing runtime and re-run the scan/apply
// passes; listeners are never wired twice for unchanged attributes.
func Enhance(root dom.Root, opts Options) (*Runtime, error) {
	rt := obtain(root, opts)
	rt.doc.Run(func() {
		rt.activate()
	})
	return rt, nil
}

// enhanceInTurn is Enhance for callers already inside a document turn
// (mutation observer callbacks, post-swap rescans).
func enhanceInTurn(root dom.Root, opts Options) *Runtime {
	rt := obtain(root, opts)
	rt.activate()
	return rt
}

// obtain returns the root's runtime, creating and registering it on
// first use.
func obtain(root dom.Root, opts Options) *Runtime {
	runtimes.Lock()
	defer runtimes.Unlock()
	if rt, ok := runtimes.m[root]; ok {
		return rt
	}
	opts = opts.withDefaults()
	rt := &Runtime{
		root:        root,
		doc:         root.Doc(),
		opts:        opts,
		store:       NewSignals(),
		logger:      opts.Logger,
		client:      opts.HTTPClient,
		wired:       make(map[*dom.Element]map[string]wiredListener),
		signalsSeen: make(map[*dom.Element]string),
		sse:         make(map[*dom.Element]*sseRecord),
		gens:        make(map[*dom.Element]uint64),
	}
	runtimes.m[root] = rt
	return rt
}

// activate starts observation on first use, then runs the scan/apply
// sequence and enhances shadow roots. Must run inside a turn.
func (rt *Runtime) activate() {
	if rt.observer == nil {
		rt.observer = rt.doc.Observe(rt.root, rt.onMutations)
		rt.unsubscribe = rt.store.Subscribe(func(string, any) {
			rt.scheduleApply()
		})
	}
	rt.refresh()
	for _, sr := range dom.ShadowRoots(rt.root) {
		enhanceInTurn(sr, rt.opts)
	}
}

// For returns the runtime owning a root, if it has been enhanced.
func For(root dom.Root) (*Runtime, bool) {
	runtimes.Lock()
	defer runtimes.Unlock()
	rt, ok := runtimes.m[root]
	return rt, ok
}

// Release tears down the runtime for a root: the mutation observer, the
// signal subscription, and all SSE connections. Shadow-root runtimes
// beneath the root are released as well. Returns ErrNoRuntime if the
// root was never enhanced.
func Release(root dom.Root) error {
	runtimes.Lock()
	rt, ok := runtimes.m[root]
	if ok {
		delete(runtimes.m, root)
	}
	runtimes.Unlock()
	if !ok {
		return ErrNoRuntime
	}

	var records []*sseRecord
	rt.doc.Run(func() {
		rt.observer.Disconnect()
		rt.unsubscribe()
		for el, rec := range rt.sse {
			records = append(records, rec)
			delete(rt.sse, el)
		}
	})
	// Close connections outside the turn: delivery goroutines take
	// turns of their own while draining.
	for _, rec := range records {
		rec.close()
	}

	for _, sr := range dom.ShadowRoots(rt.root) {
		if err := Release(sr); err != nil && err != ErrNoRuntime {
			return err
		}
	}
	return nil
}

// Signals returns the runtime's signal store. Mutations from outside a
// document turn must be wrapped in Document.Run.
func (rt *Runtime) Signals() *Signals { return rt.store }

// Root returns the enhanced root.
func (rt *Runtime) Root() dom.Root { return rt.root }

// Wait blocks until all in-flight action requests have completed and
// applied. Intended for tests and server-side rendering flows.
func (rt *Runtime) Wait() {
	rt.inflight.Wait()
}

// refresh runs the full scan/apply sequence. Must be called inside a
// turn.
func (rt *Runtime) refresh() {
	rt.scanSignals()
	rt.scanAndWire()
	rt.applyDirectives()
	rt.scanSSE()
}

// onMutations handles a childList mutation batch: newly attached subtrees
// are scanned and wired, new shadow roots enhanced, directives
// re-applied, and SSE declarations reconciled.
func (rt *Runtime) onMutations(batch []dom.Mutation) {
	rt.scanSignals()
	rt.scanAndWire()
	rt.scheduleApply()
	rt.scanSSE()
	rt.pruneWiring()

	for _, m := range batch {
		for _, added := range m.Added {
			for _, sr := range dom.ShadowRoots(subtreeRoot{el: added}) {
				enhanceInTurn(sr, rt.opts)
			}
		}
	}
}

// subtreeRoot adapts a subtree element to the Root interface for shadow
// discovery within mutation batches.
type subtreeRoot struct{ el *dom.Element }

func (s subtreeRoot) Doc() *dom.Document { return s.el.Document() }
func (s subtreeRoot) Top() *dom.Element  { return s.el }
func (s subtreeRoot) Host() *dom.Element { return nil }

// scheduleApply coalesces directive re-application: many signal writes or
// mutation batches within one turn collapse into a single apply pass run
// as a microtask.
func (rt *Runtime) scheduleApply() {
	if rt.scheduled {
		return
	}
	rt.scheduled = true
	rt.doc.QueueMicrotask(func() {
		rt.scheduled = false
		rt.applyDirectives()
	})
}

// pruneWiring drops bookkeeping for elements no longer in the tree.
func (rt *Runtime) pruneWiring() {
	for el := range rt.wired {
		if !el.IsConnected() {
			delete(rt.wired, el)
		}
	}
	for el := range rt.signalsSeen {
		if !el.IsConnected() {
			delete(rt.signalsSeen, el)
		}
	}
	for el := range rt.gens {
		if !el.IsConnected() {
			delete(rt.gens, el)
		}
	}
}
