package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

const defaultLeaderboardLimit = 10

// LeaderboardService ranks users by points
type LeaderboardService interface {
	Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error)
}

// DashboardService builds per-user and global statistics
type DashboardService interface {
	ForUser(ctx context.Context, userID string) (*entities.DashboardStats, error)
	Global(ctx context.Context) (*entities.GlobalStats, error)
}

// CommunityHandler serves the leaderboard and dashboards
type CommunityHandler struct {
	leaderboard LeaderboardService
	dashboard   DashboardService
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(leaderboard LeaderboardService, dashboard DashboardService) *CommunityHandler {
	return &CommunityHandler{
		leaderboard: leaderboard,
		dashboard:   dashboard,
	}
}

// Leaderboard handles GET /api/community/leaderboard?limit=N
func (h *CommunityHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, apperrors.CodeInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.leaderboard.Leaderboard(r.Context(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, listOf(entries), "Leaderboard data fetched successfully")
}

// MyDashboard handles GET /api/dashboard/me
func (h *CommunityHandler) MyDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.dashboard.ForUser(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, stats, "")
}

// GlobalDashboard handles GET /api/dashboard/global
func (h *CommunityHandler) GlobalDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Global(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, stats, "")
}
