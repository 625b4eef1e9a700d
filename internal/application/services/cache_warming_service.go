package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
)

const (
	warmFacilityPage      = 10
	warmLeaderboardLimit  = 10
	warmFacilityScanLimit = 100
)

// LeaderboardReader is the read side of the leaderboard
type LeaderboardReader interface {
	Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error)
}

// CacheWarmingService refills the read caches that waste and facility
// events invalidate. It reads through the caching layers, so each read
// stores its own result.
type CacheWarmingService struct {
	facilities  repositories.FacilityRepository
	leaderboard LeaderboardReader
}

// NewCacheWarmingService creates a new cache warming service. facilities
// should be the cached facility adapter.
func NewCacheWarmingService(facilities repositories.FacilityRepository, leaderboard LeaderboardReader) *CacheWarmingService {
	return &CacheWarmingService{
		facilities:  facilities,
		leaderboard: leaderboard,
	}
}

// WarmCache loads the default facility page, the nearby lists of every
// region with an active facility, and the default leaderboard.
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	start := time.Now()

	if _, _, err := s.facilities.List(ctx, repositories.FacilityFilter{ActiveOnly: true, Limit: warmFacilityPage}); err != nil {
		log.Warn().Err(err).Msg("failed to warm facility list")
	}

	nearby, err := s.warmNearby(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to warm nearby facilities")
	}

	if s.leaderboard != nil {
		if _, err := s.leaderboard.Leaderboard(ctx, warmLeaderboardLimit); err != nil {
			log.Warn().Err(err).Msg("failed to warm leaderboard")
		}
	}

	log.Debug().Int("nearby_lists", nearby).Dur("duration", time.Since(start)).Msg("cache warming completed")
	return ctx.Err()
}

func (s *CacheWarmingService) warmNearby(ctx context.Context) (int, error) {
	active, _, err := s.facilities.List(ctx, repositories.FacilityFilter{ActiveOnly: true, Limit: warmFacilityScanLimit})
	if err != nil {
		return 0, err
	}

	regions := make(map[string]bool)
	for _, f := range active {
		if f.Region != "" {
			regions[f.Region] = true
		}
	}

	warmed := 0
	for region := range regions {
		for _, wasteType := range entities.WasteTypes {
			if err := ctx.Err(); err != nil {
				return warmed, err
			}
			if _, err := s.facilities.FindNearby(ctx, region, string(wasteType)); err != nil {
				log.Warn().Err(err).Str("region", region).Str("waste_type", string(wasteType)).Msg("failed to warm nearby list")
				continue
			}
			warmed++
		}
	}
	return warmed, nil
}

// StartPeriodicWarming warms once, then every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}
