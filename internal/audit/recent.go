package audit

import "sync"

// Listing limits for Recent.List.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Filter selects events from Recent.
type Filter struct {
	// Outcome keeps only events with this outcome when non-empty.
	Outcome Outcome
	Limit   int
	Offset  int
}

// ListResult is one page of events, newest first.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Recent keeps the last N events in memory. It is safe for concurrent use.
type Recent struct {
	mu     sync.RWMutex
	buf    []Event
	next   int
	filled bool
}

// NewRecent returns a ring holding up to size events. size < 1 is treated as 1.
func NewRecent(size int) *Recent {
	if size < 1 {
		size = 1
	}
	return &Recent{buf: make([]Event, size)}
}

// Record stores ev, evicting the oldest event when full.
func (r *Recent) Record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.filled = true
	}
}

// List returns the events matching f, newest first.
func (r *Recent) List(f Filter) ListResult {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.filled {
		n = len(r.buf)
	}

	matched := make([]Event, 0, n)
	for i := 1; i <= n; i++ {
		ev := r.buf[(r.next-i+len(r.buf))%len(r.buf)]
		if f.Outcome != "" && ev.Outcome != f.Outcome {
			continue
		}
		matched = append(matched, ev)
	}

	res := ListResult{Events: []Event{}, Total: len(matched), Limit: f.Limit, Offset: f.Offset}
	if f.Offset >= len(matched) {
		return res
	}
	end := min(f.Offset+f.Limit, len(matched))
	res.Events = matched[f.Offset:end]
	return res
}
