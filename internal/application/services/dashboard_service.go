package services

import (
	"context"
	"math"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
)

// Conversion factors for impact equivalents
const (
	co2PerTreeKg     = 20.0
	kwhPerWasteKg    = 0.5
	litersPerWasteKg = 10.0
)

// DashboardService builds per-user and platform summaries
type DashboardService struct {
	users      repositories.UserRepository
	logs       repositories.WasteLogRepository
	facilities repositories.FacilityRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(users repositories.UserRepository, logs repositories.WasteLogRepository, facilities repositories.FacilityRepository) *DashboardService {
	return &DashboardService{
		users:      users,
		logs:       logs,
		facilities: facilities,
	}
}

// ForUser returns the caller's totals with entry count and equivalents
func (s *DashboardService) ForUser(ctx context.Context, userID string) (*entities.DashboardStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.logs.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &entities.DashboardStats{
		ProfileTotals: user.ProfileTotals,
		TotalEntries:  entries,
		Equivalents:   Equivalents(user.ProfileTotals),
	}, nil
}

// Global returns platform-wide totals
func (s *DashboardService) Global(ctx context.Context) (*entities.GlobalStats, error) {
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.logs.Count(ctx)
	if err != nil {
		return nil, err
	}
	centers, err := s.facilities.Count(ctx, false)
	if err != nil {
		return nil, err
	}

	return &entities.GlobalStats{
		TotalUsers:         stats.TotalUsers,
		TotalEntries:       entries,
		TotalWasteRecycled: round2(stats.TotalWasteRecycled),
		TotalCO2Saved:      round2(stats.TotalCO2Saved),
		TotalPointsAwarded: stats.TotalPoints,
		RecyclingCenters:   centers,
	}, nil
}

// Equivalents translates totals into trees, kWh and liters
func Equivalents(t entities.ProfileTotals) entities.ImpactEquivalents {
	return entities.ImpactEquivalents{
		TreesPlanted: round2(t.TotalCO2SavedKg / co2PerTreeKg),
		EnergySaved:  round2(t.TotalWasteRecycledKg * kwhPerWasteKg),
		WaterSaved:   round2(t.TotalWasteRecycledKg * litersPerWasteKg),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
