package entities

import (
	"time"

	"github.com/google/uuid"
)

// WasteEventType represents the type of waste ledger event
type WasteEventType string

const (
	WasteEventTypeEntryLogged       WasteEventType = "entry_logged"
	WasteEventTypeEntryDeleted      WasteEventType = "entry_deleted"
	WasteEventTypeStatusChanged     WasteEventType = "status_changed"
	WasteEventTypeProfileReconciled WasteEventType = "profile_reconciled"
	WasteEventTypeFacilityChanged   WasteEventType = "facility_changed"
)

// WasteEvent is published after a committed change to a user's entries,
// profile totals, or the facility catalogue. Profile carries the totals as
// of the commit so subscribers never have to re-read them.
type WasteEvent struct {
	ID         string         `json:"id"`
	EventType  WasteEventType `json:"event_type"`
	UserID     string         `json:"user_id,omitempty"`
	EntryID    string         `json:"entry_id,omitempty"`
	FacilityID string         `json:"facility_id,omitempty"`
	Profile    *ProfileTotals `json:"profile,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewWasteEvent creates a new waste event
func NewWasteEvent(eventType WasteEventType, userID, entryID string, profile *ProfileTotals) *WasteEvent {
	return &WasteEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		UserID:    userID,
		EntryID:   entryID,
		Profile:   profile,
		Timestamp: time.Now().UTC(),
	}
}

// NewFacilityChangedEvent creates an event announcing a facility catalogue change
func NewFacilityChangedEvent(facilityID string) *WasteEvent {
	return &WasteEvent{
		ID:         uuid.New().String(),
		EventType:  WasteEventTypeFacilityChanged,
		FacilityID: facilityID,
		Timestamp:  time.Now().UTC(),
	}
}
