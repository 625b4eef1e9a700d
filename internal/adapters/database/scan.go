package database

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

const (
	usersTable      = "users"
	wasteLogsTable  = "waste_logs"
	facilitiesTable = "recycling_centers"
)

var userColumns = []interface{}{
	"id", "email", "password_hash", "name", "location", "role",
	"total_co2_saved_kg", "total_waste_recycled_kg", "points",
	"created_at", "updated_at",
}

var wasteLogColumns = []interface{}{
	"id", "user_id", "waste_type", "weight_kg", "image_url", "co2_saved_kg",
	"disposal_method", "collection_location", "region", "collection_status",
	"collection_date", "facility_id", "logged_at", "updated_at",
}

var facilityColumns = []interface{}{
	"id", "name", "location", "region", "latitude", "longitude",
	"facility_type", "contact", "operating_hours", "accepted_types",
	"is_active", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*entities.User, error) {
	u := &entities.User{}
	var role string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Location,
		&role,
		&u.TotalCO2SavedKg,
		&u.TotalWasteRecycledKg,
		&u.Points,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = entities.Role(role)
	return u, nil
}

func scanWasteEntry(row rowScanner) (*entities.WasteEntry, error) {
	e := &entities.WasteEntry{}
	var wasteType, status string
	var imageURL, facilityID sql.NullString
	var collectionDate sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.UserID,
		&wasteType,
		&e.WeightKg,
		&imageURL,
		&e.CO2SavedKg,
		&e.DisposalMethod,
		&e.CollectionLocation,
		&e.Region,
		&status,
		&collectionDate,
		&facilityID,
		&e.LoggedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.WasteType = entities.WasteType(wasteType)
	e.CollectionStatus = entities.CollectionStatus(status)
	e.ImageURL = imageURL.String
	e.FacilityID = facilityID.String
	if collectionDate.Valid {
		d := collectionDate.Time
		e.CollectionDate = &d
	}
	return e, nil
}

func scanFacility(row rowScanner) (*entities.Facility, error) {
	f := &entities.Facility{}
	var facilityType string
	var accepted pq.StringArray

	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Location,
		&f.Region,
		&f.Latitude,
		&f.Longitude,
		&facilityType,
		&f.Contact,
		&f.OperatingHours,
		&accepted,
		&f.IsActive,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.FacilityType = entities.FacilityType(facilityType)
	f.AcceptedTypes = []string(accepted)
	if f.AcceptedTypes == nil {
		f.AcceptedTypes = []string{}
	}
	return f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
