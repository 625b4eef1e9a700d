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
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

// FacilityService is the subset of the facility service used over HTTP
type FacilityService interface {
	Create(ctx context.Context, facility *entities.Facility) error
	GetByID(ctx context.Context, id string) (*entities.Facility, error)
	Update(ctx context.Context, facility *entities.Facility) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q services.FacilityQuery) ([]*entities.Facility, int, error)
	FindNearby(ctx context.Context, region, wasteType string) ([]*entities.Facility, error)
}

// FacilityHandler handles facility-related HTTP requests
type FacilityHandler struct {
	service  FacilityService
	validate *validator.Validate
}

// NewFacilityHandler creates a new facility handler
func NewFacilityHandler(service FacilityService) *FacilityHandler {
	return &FacilityHandler{
		service:  service,
		validate: newValidator(),
	}
}

// FacilityRequest is the create and update body
type FacilityRequest struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Location       string   `json:"location" validate:"max=300"`
	Region         string   `json:"region" validate:"required"`
	Latitude       float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64  `json:"longitude" validate:"gte=-180,lte=180"`
	FacilityType   string   `json:"facility_type" validate:"required"`
	Contact        string   `json:"contact"`
	OperatingHours string   `json:"operating_hours"`
	AcceptedTypes  []string `json:"accepted_types"`
	IsActive       *bool    `json:"is_active"`
}

func (req FacilityRequest) facility(id string) *entities.Facility {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &entities.Facility{
		ID:             id,
		Name:           req.Name,
		Location:       req.Location,
		Region:         strings.TrimSpace(req.Region),
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		FacilityType:   entities.FacilityType(req.FacilityType),
		Contact:        req.Contact,
		OperatingHours: req.OperatingHours,
		AcceptedTypes:  req.AcceptedTypes,
		IsActive:       active,
	}
}

// ListFacilities handles GET /api/recycling-centers
func (h *FacilityHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, perPage := parsePage(r)

	filter := repositories.FacilityFilter{
		Region:     strings.TrimSpace(query.Get("region")),
		WasteType:  strings.TrimSpace(query.Get("waste_type")),
		ActiveOnly: true,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	}
	if raw := query.Get("active_only"); raw != "" {
		activeOnly, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, apperrors.CodeInvalidRequest, "active_only must be true or false")
			return
		}
		filter.ActiveOnly = activeOnly
	}
	if filter.WasteType != "" {
		if canonical, ok := entities.ParseWasteType(filter.WasteType); ok {
			filter.WasteType = string(canonical)
		}
	}
	if raw := query.Get("facility_type"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			facilityType, ok := entities.ParseFacilityType(part)
			if !ok {
				respondWithError(w, http.StatusBadRequest, apperrors.CodeInvalidRequest, "unknown facility_type "+strconv.Quote(part))
				return
			}
			filter.FacilityTypes = append(filter.FacilityTypes, facilityType)
		}
	}

	q := services.FacilityQuery{Filter: filter}
	latRaw, lngRaw := query.Get("lat"), query.Get("lng")
	if latRaw != "" || lngRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(lngRaw, 64)
		if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			respondWithError(w, http.StatusBadRequest, apperrors.CodeInvalidRequest, "lat and lng must both be valid coordinates")
			return
		}
		q.Near = &services.Coordinates{Latitude: lat, Longitude: lng}
	}

	facilities, total, err := h.service.List(r.Context(), q)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, Envelope{
		Data:       listOf(facilities),
		Message:    "Recycling centers fetched successfully",
		Pagination: newPagination(page, perPage, total),
	})
}

// FindNearby handles GET /api/recycling-centers/nearby?region=&waste_type=
func (h *FacilityHandler) FindNearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	facilities, err := h.service.FindNearby(r.Context(), query.Get("region"), query.Get("waste_type"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, listOf(facilities), "")
}

// GetFacility handles GET /api/recycling-centers/{id}
func (h *FacilityHandler) GetFacility(w http.ResponseWriter, r *http.Request) {
	facility, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, facility, "")
}

// CreateFacility handles POST /api/recycling-centers (admin)
func (h *FacilityHandler) CreateFacility(w http.ResponseWriter, r *http.Request) {
	var req FacilityRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	facility := req.facility("")
	if err := h.service.Create(r.Context(), facility); err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusCreated, facility, "Recycling center created successfully")
}

// UpdateFacility handles PUT /api/recycling-centers/{id} (admin)
func (h *FacilityHandler) UpdateFacility(w http.ResponseWriter, r *http.Request) {
	var req FacilityRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	facility := req.facility(r.PathValue("id"))
	if err := h.service.Update(r.Context(), facility); err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, facility, "Recycling center updated successfully")
}

// DeleteFacility handles DELETE /api/recycling-centers/{id} (admin)
func (h *FacilityHandler) DeleteFacility(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, nil, "Recycling center deleted successfully")
}
