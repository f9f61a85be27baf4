package taxledger

import "github.com/xraph/taxledger/id"

// ID is the primary identifier type for all tax ledger entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// Typed ID aliases.
type (
	LedgerID = id.LedgerID
	RollupID = id.RollupID
	EventID  = id.EventID
	BatchID  = id.BatchID
	TickID   = id.TickID
)
