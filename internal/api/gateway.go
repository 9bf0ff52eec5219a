package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nerrad567/sqlgate/internal/access"
	"github.com/nerrad567/sqlgate/internal/audit"
	"github.com/nerrad567/sqlgate/internal/engine"
	"github.com/nerrad567/sqlgate/internal/validation"
)

// Gateway payload fields.
const (
	fieldPassword = "password"
	fieldQuery    = "query"
	fieldSingle   = "single"
)

// queryLogPrefix is how much query text may appear in debug logs.
const queryLogPrefix = 64

// gatewayFields is the validation schema of the gateway payload. The
// password field is only present when a secret is required.
func gatewayFields(secretRequired bool, maxQueryLength int) []validation.Field {
	fields := make([]validation.Field, 0, 3)
	if secretRequired {
		fields = append(fields, validation.Field{Name: fieldPassword, Constraint: validation.Pattern{}})
	}
	return append(fields,
		validation.Field{Name: fieldQuery, Constraint: validation.Pattern{MaxLength: maxQueryLength}},
		validation.Field{Name: fieldSingle, Constraint: validation.Bare{Of: validation.Boolean}},
	)
}

// handleGateway runs one SQL request.
//
// Order: IP allow-list, payload decoding, schema validation, secret check,
// execution. Every outcome is a 200 envelope and one audit event.
func (s *Server) handleGateway(w http.ResponseWriter, r *http.Request) {
	ev := audit.NewEvent(access.ClientIP(r), audit.OutcomeOK)
	ev.RequestID = requestID(r.Context())

	env := s.serveGateway(r, &ev)
	if env.Status == StatusError {
		ev.Detail = env.Detail
	}

	s.record(ev)
	s.logCall(ev)
	writeEnvelope(w, env)
}

func (s *Server) serveGateway(r *http.Request, ev *audit.Event) (env Envelope) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("panic recovered in gateway handler",
				"error", p,
				"request_id", ev.RequestID,
			)
			ev.Outcome = audit.OutcomeUnexpectedError
			env = failure(prefixUnexpected + fmt.Sprint(p))
		}
	}()

	if !s.gate.Authorize(ev.ClientIP) {
		ev.Outcome = audit.OutcomeAccessDenied
		return failure(msgIPRejected)
	}

	payload, err := decodePayload(r.Body)
	if err != nil {
		ev.Outcome = audit.OutcomeParseError
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return failure(fmt.Sprintf(msgBodyTooLarge, tooLarge.Limit))
		}
		return failure(msgExpectedJSON)
	}

	if errs := validation.Validate(payload, s.fields); len(errs) > 0 {
		ev.Outcome = audit.OutcomeValidation
		return failure(errs...)
	}

	if s.gate.SecretRequired() {
		secret, _ := payload[fieldPassword].(string)
		if !s.gate.CheckSecret(secret) {
			ev.Outcome = audit.OutcomeAccessDenied
			return failure(msgInvalidSecret)
		}
	}

	req := engine.Request{
		Query:  payload[fieldQuery].(string),
		Single: payload[fieldSingle].(bool),
	}
	ev.Single = req.Single
	ev.QueryLength = len(req.Query)

	s.logger.Debug("executing query",
		"request_id", ev.RequestID,
		"single", req.Single,
		"query_prefix", truncate(req.Query, queryLogPrefix),
	)

	res, err := s.engine.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, engine.ErrDatabase) {
			ev.Outcome = audit.OutcomeDatabaseError
			return failure(prefixDatabase + engine.Message(err))
		}
		ev.Outcome = audit.OutcomeUnexpectedError
		return failure(prefixUnexpected + engine.Message(err))
	}

	ev.Elapsed = res.Elapsed
	ev.Rows = len(res.Rows)

	env = Envelope{
		Status:        StatusOK,
		ExecutionTime: engine.FormatElapsed(res.Elapsed),
	}
	if res.HasResultSet {
		env.Columns = res.Columns
		env.Data = res.Rows
	}
	return env
}

// decodePayload reads a JSON object from body. Anything else, including
// trailing data, JSON null and oversized bodies, is an error.
func decodePayload(body io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	if payload == nil {
		return nil, errors.New("decoding body: not an object")
	}
	return payload, nil
}

// logCall writes the per-call log line. The secret and query are never logged.
func (s *Server) logCall(ev audit.Event) {
	attrs := []any{
		"client", ev.ClientIP,
		"outcome", string(ev.Outcome),
		"request_id", ev.RequestID,
	}
	if ev.Outcome == audit.OutcomeOK {
		s.logger.Info("database accessed", append(attrs,
			"single", ev.Single,
			"rows", ev.Rows,
			"elapsed", engine.FormatElapsed(ev.Elapsed),
		)...)
		return
	}
	s.logger.Info("database access rejected", append(attrs, "detail", ev.Detail)...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
