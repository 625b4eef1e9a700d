package entities

import (
	"strings"
	"time"
)

// WasteType is one of the fixed categories a waste entry can be logged under.
type WasteType string

const (
	WasteTypePlastic      WasteType = "Plastic"
	WasteTypePaper        WasteType = "Paper"
	WasteTypeOrganic      WasteType = "Organic"
	WasteTypeGlass        WasteType = "Glass"
	WasteTypeMetal        WasteType = "Metal"
	WasteTypeEWaste       WasteType = "E-Waste"
	WasteTypeAgricultural WasteType = "Agricultural"
	WasteTypeTextile      WasteType = "Textile"
	WasteTypeOther        WasteType = "Other"
)

// WasteTypes lists every known waste type in display order.
var WasteTypes = []WasteType{
	WasteTypePlastic,
	WasteTypePaper,
	WasteTypeOrganic,
	WasteTypeGlass,
	WasteTypeMetal,
	WasteTypeEWaste,
	WasteTypeAgricultural,
	WasteTypeTextile,
	WasteTypeOther,
}

// ParseWasteType matches value against the known types ignoring case and
// surrounding whitespace. It returns the canonical spelling.
func ParseWasteType(value string) (WasteType, bool) {
	trimmed := strings.TrimSpace(value)
	for _, t := range WasteTypes {
		if strings.EqualFold(string(t), trimmed) {
			return t, true
		}
	}
	return WasteType(trimmed), false
}

// CollectionStatus tracks pickup progress of a waste entry.
type CollectionStatus string

const (
	CollectionStatusPending   CollectionStatus = "pending"
	CollectionStatusScheduled CollectionStatus = "scheduled"
	CollectionStatusCollected CollectionStatus = "collected"
)

// ParseCollectionStatus returns the canonical status for value.
func ParseCollectionStatus(value string) (CollectionStatus, bool) {
	switch CollectionStatus(strings.ToLower(strings.TrimSpace(value))) {
	case CollectionStatusPending:
		return CollectionStatusPending, true
	case CollectionStatusScheduled:
		return CollectionStatusScheduled, true
	case CollectionStatusCollected:
		return CollectionStatusCollected, true
	}
	return CollectionStatus(value), false
}

// WasteEntry is one user-submitted record of a disposal event.
// CO2SavedKg and DisposalMethod are derived once at creation and never recomputed.
type WasteEntry struct {
	ID                 string           `json:"id" db:"id"`
	UserID             string           `json:"user_id" db:"user_id"`
	WasteType          WasteType        `json:"waste_type" db:"waste_type"`
	WeightKg           float64          `json:"weight" db:"weight_kg"`
	ImageURL           string           `json:"image_url,omitempty" db:"image_url"`
	CO2SavedKg         float64          `json:"co2_saved" db:"co2_saved_kg"`
	DisposalMethod     string           `json:"disposal_method" db:"disposal_method"`
	CollectionLocation string           `json:"collection_location" db:"collection_location"`
	Region             string           `json:"region" db:"region"`
	CollectionStatus   CollectionStatus `json:"collection_status" db:"collection_status"`
	CollectionDate     *time.Time       `json:"collection_date,omitempty" db:"collection_date"`
	FacilityID         string           `json:"nearest_facility_id,omitempty" db:"facility_id"`
	LoggedAt           time.Time        `json:"logged_at" db:"logged_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}
