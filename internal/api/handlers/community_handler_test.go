package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/regen-tracker/internal/api/handlers"
	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

func TestCommunityHandler_Leaderboard(t *testing.T) {
	leaderboard := new(MockLeaderboardService)
	leaderboard.On("Leaderboard", mock.Anything, 10).Return([]entities.LeaderboardEntry{
		{Rank: 1, UserID: "u-2", Name: "Otieno", ProfileTotals: entities.ProfileTotals{Points: 80}},
		{Rank: 2, UserID: "u-1", Name: "Wanjiru", ProfileTotals: entities.ProfileTotals{Points: 20}},
	}, nil)
	leaderboard.On("Leaderboard", mock.Anything, 3).Return([]entities.LeaderboardEntry{}, nil)
	handler := handlers.NewCommunityHandler(leaderboard, new(MockDashboardService))

	w := httptest.NewRecorder()
	handler.Leaderboard(w, httptest.NewRequest(http.MethodGet, "/api/community/leaderboard", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var entries []entities.LeaderboardEntry
	env := decodeEnvelope(t, w, &entries)
	assert.Equal(t, "Leaderboard data fetched successfully", env.Message)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, int64(80), entries[0].Points)

	w = httptest.NewRecorder()
	handler.Leaderboard(w, httptest.NewRequest(http.MethodGet, "/api/community/leaderboard?limit=3", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.Leaderboard(w, httptest.NewRequest(http.MethodGet, "/api/community/leaderboard?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	leaderboard.AssertExpectations(t)
}

func TestCommunityHandler_Dashboards(t *testing.T) {
	dashboard := new(MockDashboardService)
	dashboard.On("ForUser", mock.Anything, "u-1").Return(&entities.DashboardStats{
		ProfileTotals: entities.ProfileTotals{TotalCO2SavedKg: 50, TotalWasteRecycledKg: 12.345, Points: 123},
		TotalEntries:  4,
		Equivalents:   entities.ImpactEquivalents{TreesPlanted: 2.5, EnergySaved: 6.17, WaterSaved: 123.45},
	}, nil)
	dashboard.On("Global", mock.Anything).Return(&entities.GlobalStats{TotalUsers: 3, RecyclingCenters: 7}, nil)
	handler := handlers.NewCommunityHandler(new(MockLeaderboardService), dashboard)

	w := httptest.NewRecorder()
	handler.MyDashboard(w, withUser(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), member))
	require.Equal(t, http.StatusOK, w.Code)
	var stats entities.DashboardStats
	decodeEnvelope(t, w, &stats)
	assert.Equal(t, 4, stats.TotalEntries)
	assert.Equal(t, 2.5, stats.Equivalents.TreesPlanted)

	w = httptest.NewRecorder()
	handler.GlobalDashboard(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/global", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var global entities.GlobalStats
	decodeEnvelope(t, w, &global)
	assert.Equal(t, 7, global.RecyclingCenters)
}

func TestCommunityHandler_UnexpectedErrorIsHidden(t *testing.T) {
	dashboard := new(MockDashboardService)
	dashboard.On("Global", mock.Anything).Return(nil, errors.New("pq: connection refused"))
	handler := handlers.NewCommunityHandler(new(MockLeaderboardService), dashboard)

	w := httptest.NewRecorder()
	handler.GlobalDashboard(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/global", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w).Message)
}
