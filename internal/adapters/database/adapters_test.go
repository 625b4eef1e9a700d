package database_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/postgres"
)

var (
	testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	userCols = []string{
		"id", "email", "password_hash", "name", "location", "role",
		"total_co2_saved_kg", "total_waste_recycled_kg", "points",
		"created_at", "updated_at",
	}
	wasteLogCols = []string{
		"id", "user_id", "waste_type", "weight_kg", "image_url", "co2_saved_kg",
		"disposal_method", "collection_location", "region", "collection_status",
		"collection_date", "facility_id", "logged_at", "updated_at",
	}
	facilityCols = []string{
		"id", "name", "location", "region", "latitude", "longitude",
		"facility_type", "contact", "operating_hours", "accepted_types",
		"is_active", "created_at", "updated_at",
	}
)

func newMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewFromDB(db), mock
}

func userRow(id string, co2, waste float64, points int64) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(
		id, id+"@example.com", "hash", "Amina", "Nairobi", "user",
		co2, waste, points, testNow, testNow,
	)
}

func wasteLogRow(rows *sqlmock.Rows, id, userID, wasteType string, weight, co2 float64) *sqlmock.Rows {
	return rows.AddRow(
		id, userID, wasteType, weight, nil, co2,
		"Recycle at plastic recycling center", "Kenyatta Ave, Nairobi", "Nairobi", "pending",
		nil, nil, testNow, testNow,
	)
}

func facilityRow(rows *sqlmock.Rows, id, name, region string, lat, lng float64) *sqlmock.Rows {
	return rows.AddRow(
		id, name, "Industrial Area", region, lat, lng,
		"recycling", "+254700000000", "08:00-17:00", "{Plastic,Paper}",
		true, testNow, testNow,
	)
}
