package audit

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a gateway call ended.
type Outcome string

// Outcomes, one per failure kind plus success.
const (
	OutcomeOK              Outcome = "ok"
	OutcomeAccessDenied    Outcome = "access_denied"
	OutcomeValidation      Outcome = "validation_failed"
	OutcomeParseError      Outcome = "parse_error"
	OutcomeDatabaseError   Outcome = "database_error"
	OutcomeUnexpectedError Outcome = "unexpected_error"
	OutcomeRateLimited     Outcome = "rate_limited"
)

// Outcomes lists every Outcome in a stable order.
var Outcomes = []Outcome{
	OutcomeOK,
	OutcomeAccessDenied,
	OutcomeValidation,
	OutcomeParseError,
	OutcomeDatabaseError,
	OutcomeUnexpectedError,
	OutcomeRateLimited,
}

// Event is the record of one gateway call.
type Event struct {
	ID          string        `json:"id"`
	RequestID   string        `json:"request_id,omitempty"`
	Time        time.Time     `json:"time"`
	ClientIP    string        `json:"client_ip"`
	Outcome     Outcome       `json:"outcome"`
	Single      bool          `json:"single"`
	QueryLength int           `json:"query_length"`
	Rows        int           `json:"rows"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Detail      []string      `json:"detail,omitempty"`
}

// NewEvent starts an event for clientIP with a fresh ID and timestamp.
func NewEvent(clientIP string, outcome Outcome) Event {
	return Event{
		ID:       "exe-" + uuid.NewString(),
		Time:     time.Now().UTC(),
		ClientIP: clientIP,
		Outcome:  outcome,
	}
}
