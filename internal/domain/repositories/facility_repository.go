package repositories

import (
	"context"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

// FacilityRepository defines the interface for facility data operations
type FacilityRepository interface {
	// Create creates a new facility
	Create(ctx context.Context, facility *entities.Facility) error

	// GetByID retrieves a facility by ID
	GetByID(ctx context.Context, id string) (*entities.Facility, error)

	// Update updates a facility
	Update(ctx context.Context, facility *entities.Facility) error

	// Delete deletes a facility. Entries referencing it are left untouched.
	Delete(ctx context.Context, id string) error

	// List retrieves facilities with filters and the total matching count
	List(ctx context.Context, filter FacilityFilter) ([]*entities.Facility, int, error)

	// FindNearby returns active facilities in region that accept wasteType
	FindNearby(ctx context.Context, region, wasteType string) ([]*entities.Facility, error)

	// Count counts facilities, optionally only active ones
	Count(ctx context.Context, activeOnly bool) (int, error)
}

// FacilityFilter defines filters for listing facilities
type FacilityFilter struct {
	FacilityTypes []entities.FacilityType
	Region        string
	WasteType     string
	ActiveOnly    bool
	Limit         int
	Offset        int
}
