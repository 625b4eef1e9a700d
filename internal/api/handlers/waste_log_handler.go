package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zatekoja/regen-tracker/internal/application/services"
	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/domain/waste"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

// WasteLogService is the subset of the waste log service used over HTTP
type WasteLogService interface {
	Log(ctx context.Context, user *entities.User, draft waste.Draft) (*services.LogResult, error)
	ListMine(ctx context.Context, userID string, limit int) ([]*entities.WasteEntry, error)
	ListAll(ctx context.Context, filter repositories.WasteLogFilter) ([]*entities.WasteEntry, int, error)
	Get(ctx context.Context, caller *entities.User, id string) (*entities.WasteEntry, error)
	UpdateStatus(ctx context.Context, id, rawStatus string) (*entities.WasteEntry, error)
	Delete(ctx context.Context, caller *entities.User, id string) error
}

// WasteLogHandler handles waste log HTTP requests
type WasteLogHandler struct {
	service  WasteLogService
	validate *validator.Validate
}

// NewWasteLogHandler creates a new waste log handler
func NewWasteLogHandler(service WasteLogService) *WasteLogHandler {
	return &WasteLogHandler{
		service:  service,
		validate: newValidator(),
	}
}

// CreateWasteLogRequest is the submission body. Server-derived fields such
// as co2_saved, disposal_method and collection_status are ignored if sent.
type CreateWasteLogRequest struct {
	WasteType          string            `json:"waste_type"`
	Weight             waste.WeightInput `json:"weight"`
	ImageURL           string            `json:"image_url,omitempty"`
	CollectionLocation string            `json:"collection_location"`
	Region             string            `json:"region,omitempty"`
	CollectionDate     string            `json:"collection_date,omitempty"`
	NearestFacilityID  string            `json:"nearest_facility_id,omitempty"`
}

// Draft converts the request into a validator draft. The region falls back
// to the trailing segment of collection_location.
func (req CreateWasteLogRequest) Draft() waste.Draft {
	region := strings.TrimSpace(req.Region)
	if region == "" {
		region = waste.RegionFromLocation(req.CollectionLocation)
	}
	return waste.Draft{
		WasteType:      req.WasteType,
		Weight:         req.Weight,
		ImageURL:       req.ImageURL,
		Address:        req.CollectionLocation,
		Region:         region,
		CollectionDate: req.CollectionDate,
		FacilityID:     req.NearestFacilityID,
	}
}

// UpdateStatusRequest is the body of a status change
type UpdateStatusRequest struct {
	CollectionStatus string `json:"collection_status" validate:"required"`
}

// CreateWasteLog handles POST /api/waste-logs
func (h *WasteLogHandler) CreateWasteLog(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateWasteLogRequest
	if !decodeJSON(w, r, nil, &req) {
		return
	}

	result, err := h.service.Log(r.Context(), user, req.Draft())
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusCreated, result, "Waste log created successfully")
}

// ListWasteLogs handles GET /api/waste-logs?limit=N for the caller
func (h *WasteLogHandler) ListWasteLogs(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, apperrors.CodeInvalidRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.service.ListMine(r.Context(), user.ID, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, listOf(entries), "Waste logs fetched successfully")
}

// ListAllWasteLogs handles GET /api/waste-logs/all (admin)
func (h *WasteLogHandler) ListAllWasteLogs(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePage(r)
	filter := repositories.WasteLogFilter{
		UserID: r.URL.Query().Get("user_id"),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := entities.ParseCollectionStatus(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, apperrors.CodeInvalidStatus, "invalid collection status "+strconv.Quote(raw))
			return
		}
		filter.Status = status
	}

	entries, total, err := h.service.ListAll(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, Envelope{
		Data:       listOf(entries),
		Message:    "All waste logs fetched successfully",
		Pagination: newPagination(page, perPage, total),
	})
}

// GetWasteLog handles GET /api/waste-logs/{id}
func (h *WasteLogHandler) GetWasteLog(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	entry, err := h.service.Get(r.Context(), user, r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, entry, "")
}

// UpdateStatus handles PUT /api/waste-logs/{id}/status (admin)
func (h *WasteLogHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	entry, err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), req.CollectionStatus)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, entry, "Waste log status updated successfully")
}

// DeleteWasteLog handles DELETE /api/waste-logs/{id}
func (h *WasteLogHandler) DeleteWasteLog(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, nil, "Waste log deleted successfully")
}
