package timing

import "sync"

// EveryRefresh invokes fn once per display refresh until the returned handle
// is cancelled. The next refresh is requested before fn runs, so a slow fn
// does not push later refreshes back. A refresh already running when Cancel
// is called still completes.
func EveryRefresh(host Host, fn func()) Handle {
	r := &refreshLoop{host: host, fn: fn}

	r.mu.Lock()
	r.pending = host.RequestFrame(r.fire)
	r.mu.Unlock()

	return r
}

type refreshLoop struct {
	host Host
	fn   func()

	mu        sync.Mutex
	pending   Handle
	cancelled bool
}

func (r *refreshLoop) fire() {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.pending = r.host.RequestFrame(r.fire)
	r.mu.Unlock()

	r.fn()
}

func (r *refreshLoop) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelled = true
	if r.pending != nil {
		r.pending.Cancel()
		r.pending = nil
	}
}
