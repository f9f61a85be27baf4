// Package types provides common types used across the tax ledger.
package types

import "time"

// Entity carries creation and modification timestamps.
// Embed this in persisted state to get timestamp handling.
type Entity struct {
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewEntity creates an Entity stamped at now.
func NewEntity(now time.Time) Entity {
	now = now.UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch moves UpdatedAt to now. Clocks that step backwards are ignored.
func (e *Entity) Touch(now time.Time) {
	if now = now.UTC(); now.After(e.UpdatedAt) {
		e.UpdatedAt = now
	}
}
