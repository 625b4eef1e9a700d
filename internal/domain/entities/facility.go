package entities

import (
	"strings"
	"time"
)

// FacilityType classifies what a facility does with received waste.
type FacilityType string

const (
	FacilityTypeRecycling FacilityType = "recycling"
	FacilityTypeDumpsite  FacilityType = "dumpsite"
	FacilityTypeBiogas    FacilityType = "biogas"
)

// ParseFacilityType returns the canonical facility type for value.
func ParseFacilityType(value string) (FacilityType, bool) {
	switch FacilityType(strings.ToLower(strings.TrimSpace(value))) {
	case FacilityTypeRecycling:
		return FacilityTypeRecycling, true
	case FacilityTypeDumpsite:
		return FacilityTypeDumpsite, true
	case FacilityTypeBiogas:
		return FacilityTypeBiogas, true
	}
	return FacilityType(value), false
}

// Facility is a recycling, dumpsite or biogas location that can receive waste.
// Entries reference facilities weakly; deleting one never touches entries.
type Facility struct {
	ID             string       `json:"id" db:"id"`
	Name           string       `json:"name" db:"name"`
	Location       string       `json:"location" db:"location"`
	Region         string       `json:"region" db:"region"`
	Latitude       float64      `json:"latitude" db:"latitude"`
	Longitude      float64      `json:"longitude" db:"longitude"`
	FacilityType   FacilityType `json:"facility_type" db:"facility_type"`
	Contact        string       `json:"contact" db:"contact"`
	OperatingHours string       `json:"operating_hours" db:"operating_hours"`
	AcceptedTypes  []string     `json:"accepted_types" db:"accepted_types"`
	IsActive       bool         `json:"is_active" db:"is_active"`
	// DistanceKm is only populated when the caller supplies coordinates.
	DistanceKm *float64  `json:"distance_km,omitempty" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Accepts reports whether the facility takes the given waste type.
func (f *Facility) Accepts(wasteType string) bool {
	for _, t := range f.AcceptedTypes {
		if strings.EqualFold(t, wasteType) {
			return true
		}
	}
	return false
}
