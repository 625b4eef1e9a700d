package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/umahmood/haversine"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/providers"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

// FacilityQuery lists facilities. When Near is set, results are ordered by
// distance from it and carry DistanceKm.
type FacilityQuery struct {
	Filter repositories.FacilityFilter
	Near   *Coordinates
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// FacilityService handles business logic for facilities
type FacilityService struct {
	repo     repositories.FacilityRepository
	eventBus providers.EventBus
}

// NewFacilityService creates a new facility service
func NewFacilityService(repo repositories.FacilityRepository, eventBus providers.EventBus) *FacilityService {
	return &FacilityService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// Create validates and stores a new facility
func (s *FacilityService) Create(ctx context.Context, facility *entities.Facility) error {
	if err := normalizeFacility(facility); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, facility); err != nil {
		return err
	}
	publishWasteEvent(ctx, s.eventBus, entities.NewFacilityChangedEvent(facility.ID))
	return nil
}

// GetByID retrieves a facility by ID
func (s *FacilityService) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	return s.repo.GetByID(ctx, id)
}

// Update validates and stores a facility
func (s *FacilityService) Update(ctx context.Context, facility *entities.Facility) error {
	if err := normalizeFacility(facility); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, facility); err != nil {
		return err
	}
	publishWasteEvent(ctx, s.eventBus, entities.NewFacilityChangedEvent(facility.ID))
	return nil
}

// Delete removes a facility. Entries that reference it keep the stale ID.
func (s *FacilityService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	publishWasteEvent(ctx, s.eventBus, entities.NewFacilityChangedEvent(id))
	return nil
}

// List returns a page of facilities and the total matching count
func (s *FacilityService) List(ctx context.Context, q FacilityQuery) ([]*entities.Facility, int, error) {
	if q.Near == nil {
		return s.repo.List(ctx, q.Filter)
	}

	// Distance ordering needs the whole filtered set before paging.
	all := q.Filter
	all.Limit, all.Offset = 0, 0
	facilities, total, err := s.repo.List(ctx, all)
	if err != nil {
		return nil, 0, err
	}

	origin := haversine.Coord{Lat: q.Near.Latitude, Lon: q.Near.Longitude}
	for _, f := range facilities {
		_, km := haversine.Distance(origin, haversine.Coord{Lat: f.Latitude, Lon: f.Longitude})
		km = math.Round(km*100) / 100
		f.DistanceKm = &km
	}
	sort.SliceStable(facilities, func(i, j int) bool {
		return *facilities[i].DistanceKm < *facilities[j].DistanceKm
	})

	return paginate(facilities, q.Filter.Offset, q.Filter.Limit), total, nil
}

// FindNearby returns active facilities in region accepting wasteType
func (s *FacilityService) FindNearby(ctx context.Context, region, wasteType string) ([]*entities.Facility, error) {
	region = strings.TrimSpace(region)
	wasteType = strings.TrimSpace(wasteType)
	if region == "" || wasteType == "" {
		return nil, apperrors.NewValidationError("region and waste_type are required")
	}
	if canonical, ok := entities.ParseWasteType(wasteType); ok {
		wasteType = string(canonical)
	}
	return s.repo.FindNearby(ctx, region, wasteType)
}

// Count counts facilities
func (s *FacilityService) Count(ctx context.Context, activeOnly bool) (int, error) {
	return s.repo.Count(ctx, activeOnly)
}

func normalizeFacility(f *entities.Facility) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return apperrors.NewValidationError("facility name is required")
	}
	facilityType, ok := entities.ParseFacilityType(string(f.FacilityType))
	if !ok {
		return apperrors.NewValidationError("facility_type must be one of recycling, dumpsite, biogas")
	}
	f.FacilityType = facilityType
	if f.Latitude < -90 || f.Latitude > 90 || f.Longitude < -180 || f.Longitude > 180 {
		return apperrors.NewValidationError("latitude or longitude out of range")
	}

	accepted := make([]string, 0, len(f.AcceptedTypes))
	seen := make(map[string]bool, len(f.AcceptedTypes))
	for _, raw := range f.AcceptedTypes {
		wasteType, ok := entities.ParseWasteType(raw)
		if !ok {
			return apperrors.NewValidationErrorWithCode(apperrors.CodeUnknownWasteType, "Unknown waste type: "+raw)
		}
		if !seen[string(wasteType)] {
			seen[string(wasteType)] = true
			accepted = append(accepted, string(wasteType))
		}
	}
	f.AcceptedTypes = accepted
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
