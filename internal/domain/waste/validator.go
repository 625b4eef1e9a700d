package waste

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

const (
	incompleteEntryMessage = "Please fill in all required fields"
	invalidWeightMessage   = "Please enter a valid weight greater than 0"
	weightTooHeavyMessage  = "Weight cannot exceed 1,000,000 kg"
	invalidDateMessage     = "Collection date cannot be in the past"
	dateLayout             = "2006-01-02"
)

// WeightInput holds a weight exactly as the user supplied it. It decodes
// from either a JSON number or a JSON string.
type WeightInput string

// UnmarshalJSON implements json.Unmarshaler.
func (w *WeightInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*w = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = WeightInput(s)
		return nil
	}
	*w = WeightInput(data)
	return nil
}

// MarshalJSON emits a number when the text parses as one.
func (w WeightInput) MarshalJSON() ([]byte, error) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(string(w)), 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return json.Marshal(string(w))
}

// WeightOf formats a numeric weight as input text.
func WeightOf(kg float64) WeightInput {
	return WeightInput(strconv.FormatFloat(kg, 'f', -1, 64))
}

// Draft is an entry as typed by a user, before validation.
type Draft struct {
	WasteType      string      `json:"waste_type"`
	Weight         WeightInput `json:"weight"`
	ImageURL       string      `json:"image_url,omitempty"`
	Address        string      `json:"address"`
	Region         string      `json:"region"`
	CollectionDate string      `json:"collection_date,omitempty"`
	FacilityID     string      `json:"nearest_facility_id,omitempty"`
}

// NormalizedEntry is a draft that passed validation.
type NormalizedEntry struct {
	WasteType          entities.WasteType
	WeightKg           float64
	ImageURL           string
	CollectionLocation string
	Region             string
	CollectionDate     *time.Time
	FacilityID         string
}

// Draft turns a normalized entry back into draft form. Validating the result
// yields the same normalized entry.
func (n NormalizedEntry) Draft() Draft {
	d := Draft{
		WasteType:  string(n.WasteType),
		Weight:     WeightOf(n.WeightKg),
		ImageURL:   n.ImageURL,
		Address:    n.CollectionLocation,
		Region:     n.Region,
		FacilityID: n.FacilityID,
	}
	if n.CollectionDate != nil {
		d.CollectionDate = n.CollectionDate.Format(dateLayout)
	}
	return d
}

// Validator checks drafts against the entry rules. The clock is injected so
// "today" is deterministic in tests.
type Validator struct {
	now func() time.Time
	loc *time.Location
}

// NewValidator creates a validator that treats dates in loc. A nil clock
// means time.Now and a nil loc means UTC.
func NewValidator(now func() time.Time, loc *time.Location) *Validator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{now: now, loc: loc}
}

// Validate returns the normalized entry or an AppError coded
// INCOMPLETE_ENTRY, UNKNOWN_WASTE_TYPE, INVALID_WEIGHT or INVALID_DATE.
func (v *Validator) Validate(d Draft) (NormalizedEntry, error) {
	rawType := strings.TrimSpace(d.WasteType)
	rawWeight := strings.TrimSpace(string(d.Weight))
	address := strings.TrimSpace(d.Address)
	region := strings.TrimSpace(d.Region)

	if rawType == "" || rawWeight == "" || address == "" || region == "" {
		return NormalizedEntry{}, apperrors.NewValidationErrorWithCode(apperrors.CodeIncompleteEntry, incompleteEntryMessage)
	}

	wasteType, ok := entities.ParseWasteType(rawType)
	if !ok {
		return NormalizedEntry{}, apperrors.NewValidationErrorWithCode(apperrors.CodeUnknownWasteType, "Unknown waste type: "+rawType)
	}

	weight, err := strconv.ParseFloat(rawWeight, 64)
	if err != nil {
		return NormalizedEntry{}, apperrors.NewValidationErrorWithCode(apperrors.CodeInvalidWeight, invalidWeightMessage)
	}
	if err := checkWeight(weight); err != nil {
		return NormalizedEntry{}, err
	}

	out := NormalizedEntry{
		WasteType:          wasteType,
		WeightKg:           weight,
		ImageURL:           strings.TrimSpace(d.ImageURL),
		CollectionLocation: FormatLocation(address, region),
		Region:             region,
		FacilityID:         strings.TrimSpace(d.FacilityID),
	}

	if raw := strings.TrimSpace(d.CollectionDate); raw != "" {
		date, err := v.parseDate(raw)
		if err != nil || date.Before(v.today()) {
			return NormalizedEntry{}, apperrors.NewValidationErrorWithCode(apperrors.CodeInvalidDate, invalidDateMessage)
		}
		out.CollectionDate = &date
	}

	return out, nil
}

// FormatLocation joins address and region as "<address>, <region>" unless
// the address already ends with that region.
func FormatLocation(address, region string) string {
	address = strings.TrimSpace(address)
	region = strings.TrimSpace(region)
	if region == "" {
		return address
	}
	if strings.HasSuffix(strings.ToLower(address), ", "+strings.ToLower(region)) {
		return address
	}
	return address + ", " + region
}

// RegionFromLocation extracts the trailing region segment of a composite
// collection location.
func RegionFromLocation(location string) string {
	idx := strings.LastIndex(location, ",")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(location[idx+1:])
}

func (v *Validator) today() time.Time {
	now := v.now().In(v.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.loc)
}

func (v *Validator) parseDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, raw, v.loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	t = t.In(v.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, v.loc), nil
}
