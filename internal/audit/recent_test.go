package audit

import (
	"fmt"
	"testing"
)

func fill(r *Recent, n int, outcome func(i int) Outcome) {
	for i := 0; i < n; i++ {
		ev := NewEvent(fmt.Sprintf("10.0.0.%d", i), outcome(i))
		ev.RequestID = fmt.Sprint(i)
		r.Record(ev)
	}
}

func TestRecent_NewestFirstAndEviction(t *testing.T) {
	r := NewRecent(3)
	fill(r, 5, func(int) Outcome { return OutcomeOK })

	res := r.List(Filter{})
	if res.Total != 3 {
		t.Fatalf("Total = %d, want 3", res.Total)
	}
	want := []string{"4", "3", "2"}
	for i, ev := range res.Events {
		if ev.RequestID != want[i] {
			t.Errorf("Events[%d].RequestID = %q, want %q", i, ev.RequestID, want[i])
		}
	}
}

func TestRecent_List(t *testing.T) {
	r := NewRecent(100)
	fill(r, 10, func(i int) Outcome {
		if i%2 == 0 {
			return OutcomeOK
		}
		return OutcomeDatabaseError
	})

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantIDs   []string
		wantLimit int
	}{
		{"defaults", Filter{}, 10, []string{"9", "8", "7", "6", "5", "4", "3", "2", "1", "0"}, DefaultListLimit},
		{"limit", Filter{Limit: 2}, 10, []string{"9", "8"}, 2},
		{"offset", Filter{Limit: 2, Offset: 8}, 10, []string{"1", "0"}, 2},
		{"offset past end", Filter{Offset: 50}, 10, nil, DefaultListLimit},
		{"outcome", Filter{Outcome: OutcomeDatabaseError, Limit: 3}, 5, []string{"9", "7", "5"}, 3},
		{"limit capped", Filter{Limit: 10000}, 10, []string{"9", "8", "7", "6", "5", "4", "3", "2", "1", "0"}, MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.List(tt.filter)
			if res.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantTotal)
			}
			if res.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", res.Limit, tt.wantLimit)
			}
			if res.Events == nil {
				t.Fatal("Events is nil, want empty slice")
			}
			if len(res.Events) != len(tt.wantIDs) {
				t.Fatalf("len(Events) = %d, want %d", len(res.Events), len(tt.wantIDs))
			}
			for i, ev := range res.Events {
				if ev.RequestID != tt.wantIDs[i] {
					t.Errorf("Events[%d].RequestID = %q, want %q", i, ev.RequestID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestRecent_Empty(t *testing.T) {
	res := NewRecent(0).List(Filter{})
	if res.Total != 0 || len(res.Events) != 0 {
		t.Errorf("List() = %+v, want empty", res)
	}
}
