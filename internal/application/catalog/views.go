package catalog

import (
	"context"
	"sync"
)

// viewRegistry tracks the enrichment run in flight for each client view.
// Beginning a run for a view supersedes and cancels the previous one.
type viewRegistry struct {
	mu    sync.Mutex
	gen   uint64
	views map[string]*viewRun
}

type viewRun struct {
	key    string
	gen    uint64
	cancel context.CancelFunc

	seedMu     sync.Mutex
	superseded bool
}

// scopedViewKey namespaces a client supplied view key with the server
// known client identity. An empty view stays unscoped.
func scopedViewKey(clientID, viewKey string) string {
	if viewKey == "" {
		return ""
	}
	return clientID + "\x00" + viewKey
}

func newViewRegistry() *viewRegistry {
	return &viewRegistry{views: make(map[string]*viewRun)}
}

// begin starts a run for key. An empty key is never superseded.
func (r *viewRegistry) begin(parent context.Context, key string) (context.Context, *viewRun) {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	r.gen++
	run := &viewRun{key: key, gen: r.gen, cancel: cancel}
	var prev *viewRun
	if key != "" {
		prev = r.views[key]
		r.views[key] = run
	}
	r.mu.Unlock()

	if prev != nil {
		// waits for a seed already in progress, then blocks any later one
		prev.seedMu.Lock()
		prev.superseded = true
		prev.seedMu.Unlock()
		prev.cancel()
	}
	return ctx, run
}

// end releases the run and drops it from the registry if still current
func (r *viewRegistry) end(run *viewRun) {
	if run.key != "" {
		r.mu.Lock()
		if r.views[run.key] == run {
			delete(r.views, run.key)
		}
		r.mu.Unlock()
	}
	run.cancel()
}

// inFlight returns the number of views with a running enrichment
func (r *viewRegistry) inFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// seed runs fn unless the run was superseded or its context is done.
// It reports whether fn ran.
func (run *viewRun) seed(ctx context.Context, fn func()) bool {
	run.seedMu.Lock()
	defer run.seedMu.Unlock()
	if run.superseded || ctx.Err() != nil {
		return false
	}
	fn()
	return true
}
