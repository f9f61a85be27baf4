// Package id defines the TypeID identifiers used by ledgers, rollups,
// events, transfer batches and settlement passes.
//
// Every identifier renders as "prefix_suffix" where the suffix is a
// UUIDv7, so IDs of one kind sort by creation time.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the kind of entity an ID belongs to.
type Prefix string

const (
	PrefixLedger Prefix = "ldg"
	PrefixRollup Prefix = "rlp"
	PrefixEvent  Prefix = "tev"
	PrefixBatch  Prefix = "bat"
	PrefixTick   Prefix = "tick"
)

// ID is a prefix-qualified identifier. The zero value is the nil ID and
// renders as "".
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// Aliases document which kind an ID field holds. They do not enforce it;
// the Parse helpers below do.
type (
	LedgerID = ID
	RollupID = ID
	EventID  = ID
	BatchID  = ID
	TickID   = ID
)

// New generates an ID with prefix. It panics on a malformed prefix, which
// only happens with a constant typo.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

func NewLedgerID() ID { return New(PrefixLedger) }
func NewRollupID() ID { return New(PrefixRollup) }
func NewEventID() ID  { return New(PrefixEvent) }
func NewBatchID() ID  { return New(PrefixBatch) }
func NewTickID() ID   { return New(PrefixTick) }

// Parse reads any well-formed TypeID.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix reads s and rejects it unless it carries expected.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := parsed.Prefix(); got != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, got)
	}
	return parsed, nil
}

func ParseLedgerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixLedger) }
func ParseRollupID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRollup) }
func ParseEventID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixEvent) }
func ParseBatchID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixBatch) }
func ParseTickID(s string) (ID, error)   { return ParseWithPrefix(s, PrefixTick) }

// ──────────────────────────────────────────────────
// Encoding
// ──────────────────────────────────────────────────

func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler. The nil ID encodes as "".
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "" decodes to Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer. The nil ID is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner for TEXT and BLOB columns.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
