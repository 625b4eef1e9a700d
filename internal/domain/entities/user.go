package entities

import (
	"time"
)

// Role controls access to administrative endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ProfileTotals are the cumulative per-user sums maintained alongside the entry log.
type ProfileTotals struct {
	TotalCO2SavedKg      float64 `json:"total_co2_saved" db:"total_co2_saved_kg"`
	TotalWasteRecycledKg float64 `json:"total_waste_recycled" db:"total_waste_recycled_kg"`
	Points               int64   `json:"points" db:"points"`
}

// User represents a registered account together with its profile totals.
type User struct {
	ID           string `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Name         string `json:"name" db:"name"`
	Location     string `json:"location" db:"location"`
	Role         Role   `json:"role" db:"role"`
	ProfileTotals
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user may use administrative endpoints.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserProfile is the public projection of a user returned to clients.
type UserProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Role     Role   `json:"role"`
	ProfileTotals
}

// Profile projects the user onto its client-facing shape.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Location:      u.Location,
		Role:          u.Role,
		ProfileTotals: u.ProfileTotals,
	}
}
