package eventlog_test

import (
	"strings"
	"testing"
	"time"

	"github.com/xraph/taxledger/eventlog"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(kind eventlog.Kind, at time.Time, account string, amount float64) eventlog.Event {
	return eventlog.NewRecord(kind, at, "", account, "Sales", "USD", amount)
}

func TestAggregate(t *testing.T) {
	base := record(eventlog.KindRecordTax, t0, "Treasury", 10)

	tests := []struct {
		name string
		next eventlog.Event
		want bool
	}{
		{"same key inside window", record(eventlog.KindRecordTax, t0.Add(10*time.Second), "Treasury", 5), true},
		{"exactly at window", record(eventlog.KindRecordTax, t0.Add(30*time.Second), "Treasury", 5), true},
		{"outside window", record(eventlog.KindRecordTax, t0.Add(31*time.Second), "Treasury", 5), false},
		{"different kind", record(eventlog.KindRecordTransfer, t0.Add(time.Second), "Treasury", 5), false},
		{"different account", record(eventlog.KindRecordTax, t0.Add(time.Second), "Other", 5), false},
		{"non-record kind", eventlog.NewEvent(eventlog.KindPayment, t0.Add(time.Second), "", "Treasury", "Sales", "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := eventlog.Aggregate(base, tt.next, 30*time.Second)
			if ok != tt.want {
				t.Errorf("Aggregate() ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestAggregateMergesFields(t *testing.T) {
	a := record(eventlog.KindRecordTax, t0, "Treasury", 10)
	b := record(eventlog.KindRecordTax, t0.Add(5*time.Second), "Treasury", 2.5)

	merged, ok := eventlog.Aggregate(a, b, 30*time.Second)
	if !ok {
		t.Fatal("expected events to aggregate")
	}
	if merged.Amount != 12.5 {
		t.Errorf("Amount = %v, want 12.5", merged.Amount)
	}
	if merged.Occurrences != 2 {
		t.Errorf("Occurrences = %d, want 2", merged.Occurrences)
	}
	if !merged.Time.Equal(b.Time) {
		t.Errorf("Time = %v, want %v", merged.Time, b.Time)
	}
	if merged.ID != a.ID {
		t.Error("merged event should keep the head's ID")
	}
	want := "Recorded tax of 12.50 USD (over 2 occurrences)"
	if merged.Description != want {
		t.Errorf("Description = %q, want %q", merged.Description, want)
	}
}

func TestLogAddMergesIntoHead(t *testing.T) {
	l := eventlog.New(10, 30*time.Second)
	for i := range 5 {
		l.Add(record(eventlog.KindRecordTax, t0.Add(time.Duration(i)*10*time.Second), "Treasury", 1))
	}
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	head, _ := l.Head()
	if head.Occurrences != 5 || head.Amount != 5 {
		t.Errorf("head = %d occurrences of %v, want 5 of 5", head.Occurrences, head.Amount)
	}
}

func TestLogCapacity(t *testing.T) {
	l := eventlog.New(3, 0)
	for i := range 5 {
		l.Add(eventlog.NewEvent(eventlog.KindPayment, t0.Add(time.Duration(i)*time.Minute), "", "A", "C", string(rune('a'+i))))
	}

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if l.Evicted() != 2 {
		t.Errorf("Evicted() = %d, want 2", l.Evicted())
	}

	var got []string
	for _, e := range l.Events() {
		got = append(got, e.Description)
	}
	if strings.Join(got, "") != "edc" {
		t.Errorf("Events() order = %v, want newest first [e d c]", got)
	}
}

func TestLogSnapshotRestore(t *testing.T) {
	l := eventlog.New(4, 0)
	for i := range 6 {
		l.Add(eventlog.NewEvent(eventlog.KindVoid, t0.Add(time.Duration(i)*time.Minute), "", "A", "C", string(rune('a'+i))))
	}
	st := l.Snapshot()

	restored := eventlog.New(4, 0)
	restored.Restore(st)

	if restored.Evicted() != l.Evicted() {
		t.Errorf("Evicted() = %d, want %d", restored.Evicted(), l.Evicted())
	}
	a, b := l.Events(), restored.Events()
	if len(a) != len(b) {
		t.Fatalf("len = %d, want %d", len(b), len(a))
	}
	for i := range a {
		if a[i].Description != b[i].Description {
			t.Errorf("event %d = %q, want %q", i, b[i].Description, a[i].Description)
		}
	}
}

func TestRender(t *testing.T) {
	l := eventlog.New(2, 0)
	l.Add(eventlog.NewEvent(eventlog.KindPayment, t0, "", "Alice", "Sales", "first"))
	if strings.Contains(l.Render(), "Displaying") {
		t.Error("banner should be absent before any eviction")
	}
	if strings.Contains(l.Render(), "Jurisdiction") {
		t.Error("jurisdiction column should be hidden when no event has a scope")
	}

	l.Add(eventlog.NewEvent(eventlog.KindPayment, t0.Add(time.Minute), "Town", "Alice", "Sales", "second"))
	l.Add(eventlog.NewEvent(eventlog.KindPayment, t0.Add(2*time.Minute), "Town", "Alice", "Sales", "third"))

	out := l.Render()
	if !strings.HasPrefix(out, "(Displaying last 2 events.)\n") {
		t.Errorf("missing banner:\n%s", out)
	}
	if !strings.Contains(out, "Jurisdiction") {
		t.Errorf("missing jurisdiction column:\n%s", out)
	}
	if strings.Index(out, "third") > strings.Index(out, "second") {
		t.Errorf("rows should be newest first:\n%s", out)
	}
}
