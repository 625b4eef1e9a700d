package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/regen-tracker/internal/api/handlers"
	"github.com/zatekoja/regen-tracker/internal/application/services"
	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/domain/waste"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

var (
	member = &entities.User{ID: "u-1", Name: "Wanjiru", Role: entities.RoleUser}
	admin  = &entities.User{ID: "u-admin", Name: "Ops", Role: entities.RoleAdmin}
)

func TestWasteLogHandler_CreateWasteLog(t *testing.T) {
	t.Run("ignores client-derived fields and derives region", func(t *testing.T) {
		service := new(MockWasteLogService)
		handler := handlers.NewWasteLogHandler(service)

		expectedDraft := waste.Draft{
			WasteType: "plastic",
			Weight:    waste.WeightInput("2"),
			Address:   "12 Moi Avenue, Nairobi",
			Region:    "Nairobi",
		}
		result := &services.LogResult{
			Entry: &entities.WasteEntry{
				ID:               "e-1",
				UserID:           "u-1",
				WasteType:        entities.WasteTypePlastic,
				WeightKg:         2,
				CO2SavedKg:       5,
				CollectionStatus: entities.CollectionStatusPending,
			},
			Profile: &entities.UserProfile{ID: "u-1", ProfileTotals: entities.ProfileTotals{TotalCO2SavedKg: 5, TotalWasteRecycledKg: 2, Points: 20}},
		}
		service.On("Log", mock.Anything, member, expectedDraft).Return(result, nil)

		body := `{"waste_type":"plastic","weight":2,"co2_saved":999,"disposal_method":"Burned",
			"collection_status":"collected","collection_location":"12 Moi Avenue, Nairobi"}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/waste-logs", strings.NewReader(body)), member)
		w := httptest.NewRecorder()

		handler.CreateWasteLog(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var data struct {
			Entry   entities.WasteEntry  `json:"entry"`
			Profile entities.UserProfile `json:"profile"`
		}
		env := decodeEnvelope(t, w, &data)
		assert.Equal(t, "Waste log created successfully", env.Message)
		assert.Equal(t, 5.0, data.Entry.CO2SavedKg)
		assert.Equal(t, entities.CollectionStatusPending, data.Entry.CollectionStatus)
		assert.Equal(t, int64(20), data.Profile.Points)
		service.AssertExpectations(t)
	})

	t.Run("explicit region wins", func(t *testing.T) {
		service := new(MockWasteLogService)
		handler := handlers.NewWasteLogHandler(service)
		service.On("Log", mock.Anything, member, mock.MatchedBy(func(d waste.Draft) bool {
			return d.Region == "Kiambu" && d.Weight == "1.5"
		})).Return(&services.LogResult{Entry: &entities.WasteEntry{ID: "e-2"}}, nil)

		body := `{"waste_type":"Glass","weight":"1.5","collection_location":"Thika Road, Nairobi","region":"Kiambu"}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/waste-logs", strings.NewReader(body)), member)
		w := httptest.NewRecorder()

		handler.CreateWasteLog(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		service.AssertExpectations(t)
	})

	t.Run("validation errors carry their code", func(t *testing.T) {
		service := new(MockWasteLogService)
		handler := handlers.NewWasteLogHandler(service)
		service.On("Log", mock.Anything, member, mock.Anything).
			Return(nil, apperrors.NewValidationErrorWithCode(apperrors.CodeInvalidWeight, "Please enter a valid weight greater than 0"))

		body := `{"waste_type":"Plastic","weight":-1,"collection_location":"Nairobi"}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/waste-logs", strings.NewReader(body)), member)
		w := httptest.NewRecorder()

		handler.CreateWasteLog(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		errBody := decodeError(t, w)
		assert.Equal(t, apperrors.CodeInvalidWeight, errBody.Error)
		assert.Equal(t, "Please enter a valid weight greater than 0", errBody.Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		handler := handlers.NewWasteLogHandler(new(MockWasteLogService))
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/waste-logs", strings.NewReader("{")), member)
		w := httptest.NewRecorder()

		handler.CreateWasteLog(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CodeInvalidRequest, decodeError(t, w).Error)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler := handlers.NewWasteLogHandler(new(MockWasteLogService))
		w := httptest.NewRecorder()

		handler.CreateWasteLog(w, httptest.NewRequest(http.MethodPost, "/api/waste-logs", strings.NewReader("{}")))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestWasteLogHandler_ListWasteLogs(t *testing.T) {
	service := new(MockWasteLogService)
	handler := handlers.NewWasteLogHandler(service)
	entries := []*entities.WasteEntry{{ID: "e-2"}, {ID: "e-1"}}
	service.On("ListMine", mock.Anything, "u-1", 5).Return(entries, nil)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/waste-logs?limit=5", nil), member)
	w := httptest.NewRecorder()

	handler.ListWasteLogs(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []entities.WasteEntry
	env := decodeEnvelope(t, w, &got)
	assert.Equal(t, "Waste logs fetched successfully", env.Message)
	require.Len(t, got, 2)
	assert.Equal(t, "e-2", got[0].ID)

	t.Run("no limit lists every entry as an array", func(t *testing.T) {
		service.On("ListMine", mock.Anything, "u-1", 0).Return(nil, nil).Once()
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/waste-logs", nil), member)
		w := httptest.NewRecorder()

		handler.ListWasteLogs(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})

	t.Run("bad limit", func(t *testing.T) {
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/waste-logs?limit=abc", nil), member)
		w := httptest.NewRecorder()

		handler.ListWasteLogs(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWasteLogHandler_ListAllWasteLogs(t *testing.T) {
	service := new(MockWasteLogService)
	handler := handlers.NewWasteLogHandler(service)
	filter := repositories.WasteLogFilter{
		UserID: "u-1",
		Status: entities.CollectionStatusScheduled,
		Limit:  2,
		Offset: 2,
	}
	service.On("ListAll", mock.Anything, filter).Return([]*entities.WasteEntry{{ID: "e-3"}, {ID: "e-4"}}, 5, nil)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/waste-logs/all?page=2&per_page=2&user_id=u-1&status=Scheduled", nil), admin)
	w := httptest.NewRecorder()

	handler.ListAllWasteLogs(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w, nil)
	assert.Equal(t, "All waste logs fetched successfully", env.Message)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, 5, env.Pagination.TotalItems)
	assert.Equal(t, 3, env.Pagination.TotalPages)
	assert.True(t, env.Pagination.HasNext)
	assert.True(t, env.Pagination.HasPrev)

	t.Run("unknown status", func(t *testing.T) {
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/waste-logs/all?status=lost", nil), admin)
		w := httptest.NewRecorder()

		handler.ListAllWasteLogs(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CodeInvalidStatus, decodeError(t, w).Error)
	})
}

func TestWasteLogHandler_GetWasteLog(t *testing.T) {
	service := new(MockWasteLogService)
	handler := handlers.NewWasteLogHandler(service)
	service.On("Get", mock.Anything, member, "e-9").Return(nil, apperrors.NewNotFoundError("waste log not found"))

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/waste-logs/e-9", nil), member)
	req.SetPathValue("id", "e-9")
	w := httptest.NewRecorder()

	handler.GetWasteLog(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(apperrors.ErrorTypeNotFound), decodeError(t, w).Error)
}

func TestWasteLogHandler_UpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "forward transition",
			body:       `{"collection_status":"collected"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing status",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   string(apperrors.ErrorTypeValidation),
		},
		{
			name:       "backwards transition",
			body:       `{"collection_status":"pending"}`,
			serviceErr: apperrors.NewConflictErrorWithCode(apperrors.CodeInvalidStatusTransition, "cannot move from collected to pending"),
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeInvalidStatusTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockWasteLogService)
			handler := handlers.NewWasteLogHandler(service)
			if tt.serviceErr != nil {
				service.On("UpdateStatus", mock.Anything, "e-1", mock.Anything).Return(nil, tt.serviceErr)
			} else {
				service.On("UpdateStatus", mock.Anything, "e-1", mock.Anything).
					Return(&entities.WasteEntry{ID: "e-1", CollectionStatus: entities.CollectionStatusCollected}, nil)
			}

			req := withUser(httptest.NewRequest(http.MethodPut, "/api/waste-logs/e-1/status", strings.NewReader(tt.body)), admin)
			req.SetPathValue("id", "e-1")
			w := httptest.NewRecorder()

			handler.UpdateStatus(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Error)
				return
			}
			var entry entities.WasteEntry
			env := decodeEnvelope(t, w, &entry)
			assert.Equal(t, "Waste log status updated successfully", env.Message)
			assert.Equal(t, entities.CollectionStatusCollected, entry.CollectionStatus)
		})
	}
}

func TestWasteLogHandler_DeleteWasteLog(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		service := new(MockWasteLogService)
		handler := handlers.NewWasteLogHandler(service)
		service.On("Delete", mock.Anything, member, "e-1").Return(nil)

		req := withUser(httptest.NewRequest(http.MethodDelete, "/api/waste-logs/e-1", nil), member)
		req.SetPathValue("id", "e-1")
		w := httptest.NewRecorder()

		handler.DeleteWasteLog(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Waste log deleted successfully", decodeEnvelope(t, w, nil).Message)
	})

	t.Run("someone else's entry", func(t *testing.T) {
		service := new(MockWasteLogService)
		handler := handlers.NewWasteLogHandler(service)
		service.On("Delete", mock.Anything, member, "e-7").Return(apperrors.NewForbiddenError("not your waste log"))

		req := withUser(httptest.NewRequest(http.MethodDelete, "/api/waste-logs/e-7", nil), member)
		req.SetPathValue("id", "e-7")
		w := httptest.NewRecorder()

		handler.DeleteWasteLog(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
