package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/sqlgate/internal/audit"
)

// auditChanSize is the buffer size for the async sink channel.
// Entries beyond this are dropped (best-effort) to avoid back-pressure on requests.
const auditChanSize = 256

// recentExecutions is how many events /executions can show.
const recentExecutions = 500

// record counts ev, keeps it for /executions and enqueues it for the
// external sink. The sink is fed by drainAuditLog; if the channel is full
// the entry is dropped and a warning is logged.
func (s *Server) record(ev audit.Event) {
	s.counters.Record(ev)
	s.recent.Record(ev)

	if s.sink == nil {
		return
	}
	select {
	case s.auditCh <- ev:
	default:
		s.logger.Warn("audit channel full, dropping execution event",
			"outcome", string(ev.Outcome),
			"request_id", ev.RequestID,
		)
	}
}

// drainAuditLog hands queued events to the sink one at a time.
// It runs until the context is cancelled, then drains remaining entries.
func (s *Server) drainAuditLog(ctx context.Context) {
	defer close(s.drained)
	for {
		select {
		case ev := <-s.auditCh:
			s.sink.Record(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-s.auditCh:
					s.sink.Record(ev)
				default:
					return
				}
			}
		}
	}
}

// handleListExecutions returns recent gateway calls, newest first.
//
// Query parameters:
//   - outcome: filter by outcome (ok, access_denied, database_error, ...)
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Outcome: audit.Outcome(q.Get("outcome")),
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	writeJSON(w, http.StatusOK, s.recent.List(filter))
}
