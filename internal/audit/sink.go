package audit

import (
	"sync/atomic"
	"time"
)

// Sink receives events. Record must not block the caller.
type Sink interface {
	Record(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

// Record calls f(ev).
func (f SinkFunc) Record(ev Event) { f(ev) }

// Multi fans an event out to several sinks in order. Nil entries are skipped.
type Multi []Sink

// Record forwards ev to every sink.
func (m Multi) Record(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Record(ev)
		}
	}
}

// Counters keeps running totals per outcome. The zero value is not usable;
// call NewCounters.
type Counters struct {
	started time.Time
	counts  map[Outcome]*atomic.Int64
	rows    atomic.Int64
	elapsed atomic.Int64 // nanoseconds, successful executions only
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Since          time.Time        `json:"since"`
	Total          int64            `json:"total"`
	ByOutcome      map[string]int64 `json:"by_outcome"`
	RowsReturned   int64            `json:"rows_returned"`
	AvgElapsedSecs float64          `json:"avg_elapsed_secs"`
}

// NewCounters returns zeroed counters for every Outcome.
func NewCounters() *Counters {
	c := &Counters{
		started: time.Now().UTC(),
		counts:  make(map[Outcome]*atomic.Int64, len(Outcomes)),
	}
	for _, o := range Outcomes {
		c.counts[o] = new(atomic.Int64)
	}
	return c
}

// Record counts ev. Events with an unknown outcome are ignored.
func (c *Counters) Record(ev Event) {
	n, ok := c.counts[ev.Outcome]
	if !ok {
		return
	}
	n.Add(1)
	if ev.Outcome == OutcomeOK {
		c.rows.Add(int64(ev.Rows))
		c.elapsed.Add(int64(ev.Elapsed))
	}
}

// Snapshot returns the current totals.
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Since:     c.started,
		ByOutcome: make(map[string]int64, len(c.counts)),
	}
	for _, o := range Outcomes {
		v := c.counts[o].Load()
		s.ByOutcome[string(o)] = v
		s.Total += v
	}
	s.RowsReturned = c.rows.Load()
	if ok := s.ByOutcome[string(OutcomeOK)]; ok > 0 {
		s.AvgElapsedSecs = time.Duration(c.elapsed.Load() / ok).Seconds()
	}
	return s
}
