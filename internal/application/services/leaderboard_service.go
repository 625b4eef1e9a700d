package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/providers"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/observability"
)

const (
	leaderboardTTL = 60

	// LeaderboardCachePattern matches every cached leaderboard page.
	LeaderboardCachePattern = "leaderboard:*"

	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 100
)

func leaderboardCacheKey(limit int) string {
	return fmt.Sprintf("leaderboard:%d", limit)
}

// LeaderboardService ranks contributors
type LeaderboardService struct {
	users   repositories.UserRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewLeaderboardService creates a new leaderboard service. cache may be nil.
func NewLeaderboardService(users repositories.UserRepository, cache providers.CacheProvider, metrics *observability.Metrics) *LeaderboardService {
	return &LeaderboardService{
		users:   users,
		cache:   cache,
		metrics: metrics,
	}
}

// Leaderboard returns users with any points or CO2 saved, ranked from 1
func (s *LeaderboardService) Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	key := leaderboardCacheKey(limit)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
			var entries []entities.LeaderboardEntry
			if err := json.Unmarshal(cached, &entries); err == nil {
				observability.RecordCacheHit(ctx, s.metrics, key)
				return entries, nil
			}
		}
		observability.RecordCacheMiss(ctx, s.metrics, key)
	}

	users, err := s.users.ListLeaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]entities.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, entities.LeaderboardEntry{
			Rank:          i + 1,
			UserID:        u.ID,
			Name:          u.Name,
			Location:      u.Location,
			ProfileTotals: u.ProfileTotals,
		})
	}

	if s.cache != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, key, data, leaderboardTTL); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to cache leaderboard")
			}
		}
	}
	return entries, nil
}
