package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/taxledger/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"LedgerID", id.NewLedgerID, "ldg_"},
		{"RollupID", id.NewRollupID, "rlp_"},
		{"EventID", id.NewEventID, "tev_"},
		{"BatchID", id.NewBatchID, "bat_"},
		{"TickID", id.NewTickID, "tick_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"LedgerID", id.NewLedgerID, id.ParseLedgerID},
		{"RollupID", id.NewRollupID, id.ParseRollupID},
		{"EventID", id.NewEventID, id.ParseEventID},
		{"BatchID", id.NewBatchID, id.ParseBatchID},
		{"TickID", id.NewTickID, id.ParseTickID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseLedgerID rejects rlp_", id.NewRollupID().String(), id.ParseLedgerID},
		{"ParseRollupID rejects tev_", id.NewEventID().String(), id.ParseRollupID},
		{"ParseEventID rejects bat_", id.NewBatchID().String(), id.ParseEventID},
		{"ParseBatchID rejects tick_", id.NewTickID().String(), id.ParseBatchID},
		{"ParseTickID rejects ldg_", id.NewLedgerID().String(), id.ParseTickID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parseFn(tt.input); err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type doc struct {
		ID     id.ID `json:"id"`
		Parent id.ID `json:"parent"`
	}

	original := doc{ID: id.NewLedgerID()}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored doc
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.ID.String() != original.ID.String() {
		t.Errorf("ID: got %q, want %q", restored.ID.String(), original.ID.String())
	}
	if !restored.Parent.IsNil() {
		t.Errorf("Parent: got %q, want nil", restored.Parent.String())
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewBatchID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var nilID id.ID
	val, err = nilID.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}

	var scanned2 id.ID
	if err := scanned2.Scan([]byte(original.String())); err != nil {
		t.Fatalf("Scan([]byte) failed: %v", err)
	}
	if scanned2.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned2.String(), original.String())
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewEventID()
	b := id.NewEventID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewEventID() calls returned the same ID: %q", a.String())
	}
}
