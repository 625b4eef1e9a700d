package repositories

import (
	"context"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// UpdateProfile changes the descriptive profile fields only. Totals are
	// owned by WasteLedger.
	UpdateProfile(ctx context.Context, id, name, location string) (*entities.User, error)

	// ListLeaderboard returns users with any points or CO2 saved, best first
	ListLeaderboard(ctx context.Context, limit int) ([]*entities.User, error)

	// ListIDs returns every user ID, used by reconciliation
	ListIDs(ctx context.Context) ([]string, error)

	// Stats returns aggregate totals across all users
	Stats(ctx context.Context) (*UserStats, error)
}

// UserStats aggregates profile totals across users
type UserStats struct {
	TotalUsers         int
	TotalWasteRecycled float64
	TotalCO2Saved      float64
	TotalPoints        int64
}
