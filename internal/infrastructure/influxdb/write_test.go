package influxdb

import (
	"testing"
	"time"

	"github.com/nerrad567/sqlgate/internal/audit"
)

func TestExecutionPoint(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ev := audit.Event{
		Time:        at,
		ClientIP:    "10.0.0.4",
		Outcome:     audit.OutcomeDatabaseError,
		Single:      true,
		QueryLength: 42,
		Rows:        0,
		Elapsed:     1500 * time.Microsecond,
	}

	p := executionPoint(ev)

	if p.Name() != measurementExecutions {
		t.Errorf("Name() = %q, want %q", p.Name(), measurementExecutions)
	}
	if !p.Time().Equal(at) {
		t.Errorf("Time() = %v, want %v", p.Time(), at)
	}

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["outcome"] != "database_error" || tags["single"] != "true" {
		t.Errorf("tags = %v", tags)
	}
	if _, ok := tags["client_ip"]; ok {
		t.Error("client_ip must be a field, not a tag")
	}

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["query_length"] != int64(42) {
		t.Errorf("query_length = %#v", fields["query_length"])
	}
	if fields["elapsed_secs"] != 0.0015 {
		t.Errorf("elapsed_secs = %#v", fields["elapsed_secs"])
	}
	if fields["client_ip"] != "10.0.0.4" {
		t.Errorf("client_ip = %#v", fields["client_ip"])
	}
}
