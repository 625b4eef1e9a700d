package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/providers"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
)

// CachedFacilityAdapter wraps FacilityAdapter with caching
type CachedFacilityAdapter struct {
	adapter repositories.FacilityRepository
	cache   providers.CacheProvider
}

// NewCachedFacilityAdapter creates a new cached facility adapter
func NewCachedFacilityAdapter(adapter repositories.FacilityRepository, cache providers.CacheProvider) repositories.FacilityRepository {
	return &CachedFacilityAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	facilityByIDTTL   = 300
	facilitiesListTTL = 180
	nearbyTTL         = 180
)

func facilityCacheKey(id string) string {
	return fmt.Sprintf("facilities:id:%s", id)
}

func facilitiesListCacheKey(filter repositories.FacilityFilter) string {
	types := make([]string, len(filter.FacilityTypes))
	for i, t := range filter.FacilityTypes {
		types[i] = string(t)
	}
	return fmt.Sprintf("facilities:list:%s:%s:%s:%t:%d:%d",
		strings.Join(types, ","),
		strings.ToLower(filter.Region),
		filter.WasteType,
		filter.ActiveOnly,
		filter.Limit,
		filter.Offset,
	)
}

func facilitiesNearbyCacheKey(region, wasteType string) string {
	return fmt.Sprintf("facilities:nearby:%s:%s", strings.ToLower(region), wasteType)
}

type cachedFacilityList struct {
	Facilities []*entities.Facility `json:"facilities"`
	TotalCount int                  `json:"total_count"`
}

// GetByID retrieves a facility by ID with caching
func (a *CachedFacilityAdapter) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	cacheKey := facilityCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var facility entities.Facility
		if err := json.Unmarshal(cached, &facility); err == nil {
			return &facility, nil
		}
		log.Warn().Str("facility_id", id).Msg("discarding undecodable cached facility")
	}

	facility, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.setAsync(cacheKey, facility, facilityByIDTTL)
	return facility, nil
}

// List retrieves facilities with caching
func (a *CachedFacilityAdapter) List(ctx context.Context, filter repositories.FacilityFilter) ([]*entities.Facility, int, error) {
	cacheKey := facilitiesListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var result cachedFacilityList
		if err := json.Unmarshal(cached, &result); err == nil {
			return result.Facilities, result.TotalCount, nil
		}
		log.Warn().Str("key", cacheKey).Msg("discarding undecodable cached facility list")
	}

	facilities, total, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	a.setAsync(cacheKey, cachedFacilityList{Facilities: facilities, TotalCount: total}, facilitiesListTTL)
	return facilities, total, nil
}

// FindNearby retrieves matching facilities with caching
func (a *CachedFacilityAdapter) FindNearby(ctx context.Context, region, wasteType string) ([]*entities.Facility, error) {
	cacheKey := facilitiesNearbyCacheKey(region, wasteType)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var facilities []*entities.Facility
		if err := json.Unmarshal(cached, &facilities); err == nil {
			return facilities, nil
		}
	}

	facilities, err := a.adapter.FindNearby(ctx, region, wasteType)
	if err != nil {
		return nil, err
	}

	a.setAsync(cacheKey, facilities, nearbyTTL)
	return facilities, nil
}

// Count is not cached
func (a *CachedFacilityAdapter) Count(ctx context.Context, activeOnly bool) (int, error) {
	return a.adapter.Count(ctx, activeOnly)
}

// Create creates a facility and invalidates list caches
func (a *CachedFacilityAdapter) Create(ctx context.Context, facility *entities.Facility) error {
	if err := a.adapter.Create(ctx, facility); err != nil {
		return err
	}
	a.invalidate(ctx, "")
	return nil
}

// Update updates a facility and invalidates its cache
func (a *CachedFacilityAdapter) Update(ctx context.Context, facility *entities.Facility) error {
	if err := a.adapter.Update(ctx, facility); err != nil {
		return err
	}
	a.invalidate(ctx, facility.ID)
	return nil
}

// Delete deletes a facility and invalidates its cache
func (a *CachedFacilityAdapter) Delete(ctx context.Context, id string) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}
	a.invalidate(ctx, id)
	return nil
}

// invalidate runs inline so the writer's next read misses the cache.
func (a *CachedFacilityAdapter) invalidate(ctx context.Context, id string) {
	if id != "" {
		if err := a.cache.Delete(ctx, facilityCacheKey(id)); err != nil {
			log.Warn().Err(err).Str("facility_id", id).Msg("failed to invalidate facility cache")
		}
	}
	if err := a.cache.DeletePattern(ctx, providers.FacilitiesCachePattern); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate facility list caches")
	}
}

func (a *CachedFacilityAdapter) setAsync(key string, value interface{}, ttl int) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	go func() {
		if err := a.cache.Set(context.Background(), key, data, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to cache facilities")
		}
	}()
}
