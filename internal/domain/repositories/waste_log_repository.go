package repositories

import (
	"context"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

// WasteLogRepository defines read and status operations on waste entries.
// Writes that touch profile totals go through WasteLedger.
type WasteLogRepository interface {
	// GetByID retrieves an entry by ID
	GetByID(ctx context.Context, id string) (*entities.WasteEntry, error)

	// ListByUser returns a user's most recent entries, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*entities.WasteEntry, error)

	// ListAll returns a page of entries across all users and the total count
	ListAll(ctx context.Context, filter WasteLogFilter) ([]*entities.WasteEntry, int, error)

	// UpdateStatus moves the entry from one collection status to another and
	// returns the updated entry. It fails with a conflict when the stored
	// status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to entities.CollectionStatus) (*entities.WasteEntry, error)

	// CountByUser counts a user's entries
	CountByUser(ctx context.Context, userID string) (int, error)

	// Count counts all entries
	Count(ctx context.Context) (int, error)
}

// WasteLedger keeps the entry log and profile totals consistent. Every
// method runs in a single database transaction holding the owner's row lock.
type WasteLedger interface {
	// RecordEntry inserts the entry, assigns its ID and LoggedAt, and adds it
	// to the owner's totals. Returns the owner with updated totals.
	RecordEntry(ctx context.Context, entry *entities.WasteEntry) (*entities.User, error)

	// RemoveEntry deletes the entry and subtracts it from the owner's totals.
	RemoveEntry(ctx context.Context, entryID string) (*entities.WasteEntry, *entities.User, error)

	// ReconcileUser recomputes a user's totals from their entries in log
	// order and rewrites them when they drifted.
	ReconcileUser(ctx context.Context, userID string) (*ReconcileResult, error)
}

// ReconcileResult describes one user's reconciliation outcome.
type ReconcileResult struct {
	UserID  string                 `json:"user_id"`
	Before  entities.ProfileTotals `json:"before"`
	After   entities.ProfileTotals `json:"after"`
	Entries int                    `json:"entries"`
	Drifted bool                   `json:"drifted"`
}

// WasteLogFilter defines filters for listing entries across users
type WasteLogFilter struct {
	UserID string
	Status entities.CollectionStatus
	Limit  int
	Offset int
}
