package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

// FacilityAdapter implements the FacilityRepository interface
type FacilityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFacilityAdapter creates a new facility adapter
func NewFacilityAdapter(client *postgres.Client) repositories.FacilityRepository {
	return &FacilityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new facility
func (a *FacilityAdapter) Create(ctx context.Context, facility *entities.Facility) error {
	if facility.ID == "" {
		facility.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	facility.CreatedAt = now
	facility.UpdatedAt = now
	if facility.AcceptedTypes == nil {
		facility.AcceptedTypes = []string{}
	}

	record := facilityRecord(facility)
	record["id"] = facility.ID
	record["created_at"] = facility.CreatedAt

	query, args, err := a.db.Insert(facilitiesTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create facility", err)
	}
	return nil
}

// GetByID retrieves a facility by ID, active or not
func (a *FacilityAdapter) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	query, args, err := a.db.Select(facilityColumns...).
		From(facilitiesTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	facility, err := scanFacility(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("facility with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get facility", err)
	}
	return facility, nil
}

// Update updates a facility
func (a *FacilityAdapter) Update(ctx context.Context, facility *entities.Facility) error {
	facility.UpdatedAt = time.Now().UTC()
	if facility.AcceptedTypes == nil {
		facility.AcceptedTypes = []string{}
	}

	query, args, err := a.db.Update(facilitiesTable).
		Set(facilityRecord(facility)).
		Where(goqu.Ex{"id": facility.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update facility", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("facility with id %s not found", facility.ID))
	}
	return nil
}

// Delete removes a facility. Entries keep their stale facility_id.
func (a *FacilityAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete(facilitiesTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete facility", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("facility with id %s not found", id))
	}
	return nil
}

// List retrieves facilities with filters and the total matching count
func (a *FacilityAdapter) List(ctx context.Context, filter repositories.FacilityFilter) ([]*entities.Facility, int, error) {
	conditions := facilityConditions(filter)

	countQuery, countArgs, err := a.db.From(facilitiesTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(conditions...).
		ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count facilities", err)
	}

	ds := a.db.Select(facilityColumns...).
		From(facilitiesTable).
		Where(conditions...).
		Order(goqu.C("name").Asc(), goqu.C("id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	facilities, err := a.query(ctx, ds)
	if err != nil {
		return nil, 0, err
	}
	return facilities, total, nil
}

// FindNearby returns active facilities in region that accept wasteType
func (a *FacilityAdapter) FindNearby(ctx context.Context, region, wasteType string) ([]*entities.Facility, error) {
	ds := a.db.Select(facilityColumns...).
		From(facilitiesTable).
		Where(facilityConditions(repositories.FacilityFilter{
			Region:     region,
			WasteType:  wasteType,
			ActiveOnly: true,
		})...).
		Order(goqu.C("name").Asc())
	return a.query(ctx, ds)
}

// Count counts facilities, optionally only active ones
func (a *FacilityAdapter) Count(ctx context.Context, activeOnly bool) (int, error) {
	ds := a.db.From(facilitiesTable).Select(goqu.COUNT(goqu.Star()))
	if activeOnly {
		ds = ds.Where(goqu.Ex{"is_active": true})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var n int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.NewInternalError("failed to count facilities", err)
	}
	return n, nil
}

func (a *FacilityAdapter) query(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Facility, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list facilities", err)
	}
	defer rows.Close()

	facilities := []*entities.Facility{}
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan facility", err)
		}
		facilities = append(facilities, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate facilities", err)
	}
	return facilities, nil
}

func facilityRecord(f *entities.Facility) goqu.Record {
	return goqu.Record{
		"name":            f.Name,
		"location":        f.Location,
		"region":          f.Region,
		"latitude":        f.Latitude,
		"longitude":       f.Longitude,
		"facility_type":   string(f.FacilityType),
		"contact":         f.Contact,
		"operating_hours": f.OperatingHours,
		"accepted_types":  pq.Array(f.AcceptedTypes),
		"is_active":       f.IsActive,
		"updated_at":      f.UpdatedAt,
	}
}

func facilityConditions(filter repositories.FacilityFilter) []goqu.Expression {
	conditions := []goqu.Expression{}
	if len(filter.FacilityTypes) > 0 {
		types := make([]string, len(filter.FacilityTypes))
		for i, t := range filter.FacilityTypes {
			types[i] = string(t)
		}
		conditions = append(conditions, goqu.C("facility_type").In(types))
	}
	if region := strings.TrimSpace(filter.Region); region != "" {
		conditions = append(conditions, goqu.L("LOWER(region) = LOWER(?)", region))
	}
	if wasteType := strings.TrimSpace(filter.WasteType); wasteType != "" {
		conditions = append(conditions, goqu.L("? = ANY(accepted_types)", wasteType))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, goqu.C("is_active").IsTrue())
	}
	return conditions
}
