package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/regen-tracker/internal/application/services"
	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
)

func TestCacheWarmingService_WarmCache(t *testing.T) {
	facilities := new(MockFacilityRepository)
	users := new(MockUserRepository)
	leaderboard := services.NewLeaderboardService(users, NewMockCacheProvider(), nil)

	facilities.On("List", mock.Anything, repositories.FacilityFilter{ActiveOnly: true, Limit: 10}).
		Return([]*entities.Facility{}, 0, nil).Once()
	facilities.On("List", mock.Anything, repositories.FacilityFilter{ActiveOnly: true, Limit: 100}).
		Return([]*entities.Facility{
			{ID: "f-1", Region: "Nairobi"},
			{ID: "f-2", Region: "Nairobi"},
			{ID: "f-3", Region: "Kisumu"},
			{ID: "f-4"},
		}, 4, nil).Once()
	facilities.On("FindNearby", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return([]*entities.Facility{}, nil)
	users.On("ListLeaderboard", mock.Anything, 10).Return([]*entities.User{}, nil).Once()

	svc := services.NewCacheWarmingService(facilities, leaderboard)
	require.NoError(t, svc.WarmCache(context.Background()))

	facilities.AssertNumberOfCalls(t, "FindNearby", 2*len(entities.WasteTypes))
	facilities.AssertCalled(t, "FindNearby", mock.Anything, "Kisumu", "E-Waste")
	users.AssertExpectations(t)
}

func TestCacheWarmingService_ContinuesPastFailures(t *testing.T) {
	facilities := new(MockFacilityRepository)
	facilities.On("List", mock.Anything, mock.Anything).Return(nil, 0, errors.New("db down"))

	svc := services.NewCacheWarmingService(facilities, nil)

	assert.NoError(t, svc.WarmCache(context.Background()))
	facilities.AssertNotCalled(t, "FindNearby", mock.Anything, mock.Anything, mock.Anything)
}
