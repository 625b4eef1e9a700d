package waste_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/waste"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

func TestComputeImpact_KnownTypes(t *testing.T) {
	tests := []struct {
		wasteType entities.WasteType
		factor    float64
		method    string
	}{
		{entities.WasteTypePlastic, 2.5, "Clean and sort by type, then take to recycling center"},
		{entities.WasteTypePaper, 1.8, "Flatten and bundle, recyclable with paper waste"},
		{entities.WasteTypeOrganic, 0.5, "Compost at home or use for biogas generation"},
		{entities.WasteTypeGlass, 0.8, "Clean and separate by color, take to glass recycling"},
		{entities.WasteTypeMetal, 3.0, "Clean and sort, highly recyclable at scrap centers"},
		{entities.WasteTypeEWaste, 4.0, "Take to certified e-waste collection center"},
		{entities.WasteTypeAgricultural, 0.4, "Convert to compost or biogas for cooking"},
		{entities.WasteTypeTextile, 2.0, "Donate, repurpose, or take to textile recycling"},
		{entities.WasteTypeOther, 1.0, "Check with local waste management for proper disposal"},
	}

	weights := []float64{0.01, 1, 3.5, 12.25, 999.9}

	for _, tt := range tests {
		t.Run(string(tt.wasteType), func(t *testing.T) {
			for _, w := range weights {
				impact, err := waste.ComputeImpact(tt.wasteType, w)
				require.NoError(t, err)
				assert.Equal(t, tt.factor*w, impact.CO2SavedKg)
				assert.Equal(t, tt.method, impact.DisposalMethod)
			}
		})
	}
}

func TestComputeImpact_UnknownTypeFallsBack(t *testing.T) {
	impact, err := waste.ComputeImpact("Foo", 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, impact.CO2SavedKg)
	assert.Equal(t, waste.GenericDisposalMethod, impact.DisposalMethod)

	impact, err = waste.ComputeImpact("", 7.5)
	require.NoError(t, err)
	assert.Equal(t, 7.5, impact.CO2SavedKg)
}

func TestComputeImpact_Scenarios(t *testing.T) {
	impact, err := waste.ComputeImpact(entities.WasteTypePlastic, 10)
	require.NoError(t, err)
	assert.Equal(t, 25.0, impact.CO2SavedKg)

	impact, err = waste.ComputeImpact(entities.WasteTypeOrganic, 3.5)
	require.NoError(t, err)
	assert.Equal(t, 1.75, impact.CO2SavedKg)
}

func TestComputeImpact_RejectsBadWeights(t *testing.T) {
	for _, w := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1), waste.MaxWeightKg + 1, 1e308} {
		_, err := waste.ComputeImpact(entities.WasteTypePaper, w)
		require.Error(t, err, "weight %v", w)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidWeight))
	}
}

func TestComputeImpact_StaysFiniteAtMaxWeight(t *testing.T) {
	impact, err := waste.ComputeImpact(entities.WasteTypeEWaste, waste.MaxWeightKg)
	require.NoError(t, err)
	assert.Equal(t, 4e6, impact.CO2SavedKg)

	_, err = json.Marshal(impact)
	assert.NoError(t, err)
}

func TestComputeImpact_Deterministic(t *testing.T) {
	first, err := waste.ComputeImpact(entities.WasteTypeGlass, 0.3)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		again, err := waste.ComputeImpact(entities.WasteTypeGlass, 0.3)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(first.CO2SavedKg), math.Float64bits(again.CO2SavedKg))
	}
}

func TestBuildEntry_StartsPending(t *testing.T) {
	entry, err := waste.BuildEntry("user-1", waste.NormalizedEntry{
		WasteType:          entities.WasteTypeMetal,
		WeightKg:           2,
		CollectionLocation: "Moi Avenue, Nairobi",
		Region:             "Nairobi",
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", entry.UserID)
	assert.Empty(t, entry.ID)
	assert.Equal(t, 6.0, entry.CO2SavedKg)
	assert.Equal(t, entities.CollectionStatusPending, entry.CollectionStatus)
	assert.Equal(t, "Clean and sort, highly recyclable at scrap centers", entry.DisposalMethod)
}
