package services

import (
	"context"
	"strings"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
)

// ProfileUpdate holds the editable profile fields. Nil leaves a field as is.
type ProfileUpdate struct {
	Name     *string
	Location *string
}

// ProfileService reads and edits user profiles. Totals are never written
// here; they move only through the ledger.
type ProfileService struct {
	users repositories.UserRepository
}

// NewProfileService creates a new profile service
func NewProfileService(users repositories.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

// Get returns the user's current profile
func (s *ProfileService) Get(ctx context.Context, userID string) (*entities.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// Update applies name and location changes
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (*entities.UserProfile, error) {
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name, location := current.Name, current.Location
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if in.Location != nil {
		location = strings.TrimSpace(*in.Location)
	}
	if name == current.Name && location == current.Location {
		profile := current.Profile()
		return &profile, nil
	}

	updated, err := s.users.UpdateProfile(ctx, userID, name, location)
	if err != nil {
		return nil, err
	}
	profile := updated.Profile()
	return &profile, nil
}
