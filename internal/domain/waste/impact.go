// Package waste holds the pure rules of the waste ledger: impact factors,
// draft validation, profile aggregation and collection status transitions.
package waste

import (
	"math"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

// DefaultEmissionFactor applies to any waste type missing from the table.
const DefaultEmissionFactor = 1.0

// GenericDisposalMethod is returned for waste types without specific guidance.
const GenericDisposalMethod = "Consult local waste management guidelines"

// MaxWeightKg is the heaviest single entry accepted. It keeps points and
// CO2 totals finite and within int64.
const MaxWeightKg = 1e6

// kg of CO2 saved per kg of waste diverted
var emissionFactors = map[entities.WasteType]float64{
	entities.WasteTypePlastic:      2.5,
	entities.WasteTypePaper:        1.8,
	entities.WasteTypeOrganic:      0.5,
	entities.WasteTypeGlass:        0.8,
	entities.WasteTypeMetal:        3.0,
	entities.WasteTypeEWaste:       4.0,
	entities.WasteTypeAgricultural: 0.4,
	entities.WasteTypeTextile:      2.0,
	entities.WasteTypeOther:        1.0,
}

var disposalMethods = map[entities.WasteType]string{
	entities.WasteTypePlastic:      "Clean and sort by type, then take to recycling center",
	entities.WasteTypePaper:        "Flatten and bundle, recyclable with paper waste",
	entities.WasteTypeOrganic:      "Compost at home or use for biogas generation",
	entities.WasteTypeGlass:        "Clean and separate by color, take to glass recycling",
	entities.WasteTypeMetal:        "Clean and sort, highly recyclable at scrap centers",
	entities.WasteTypeEWaste:       "Take to certified e-waste collection center",
	entities.WasteTypeAgricultural: "Convert to compost or biogas for cooking",
	entities.WasteTypeTextile:      "Donate, repurpose, or take to textile recycling",
	entities.WasteTypeOther:        "Check with local waste management for proper disposal",
}

// Impact is the derived environmental effect of one entry.
type Impact struct {
	CO2SavedKg     float64 `json:"co2_saved"`
	DisposalMethod string  `json:"disposal_method"`
}

// EmissionFactor returns the factor for wasteType, or DefaultEmissionFactor.
func EmissionFactor(wasteType entities.WasteType) float64 {
	if f, ok := emissionFactors[wasteType]; ok {
		return f
	}
	return DefaultEmissionFactor
}

// DisposalMethod returns the recommended disposal text for wasteType.
func DisposalMethod(wasteType entities.WasteType) string {
	if m, ok := disposalMethods[wasteType]; ok {
		return m
	}
	return GenericDisposalMethod
}

// ComputeImpact derives CO2 saved and the disposal recommendation. Unknown
// waste types never fail; only a weight outside (0, MaxWeightKg] does.
func ComputeImpact(wasteType entities.WasteType, weightKg float64) (Impact, error) {
	if err := checkWeight(weightKg); err != nil {
		return Impact{}, err
	}
	co2 := EmissionFactor(wasteType) * weightKg
	if math.IsInf(co2, 0) || math.IsNaN(co2) {
		return Impact{}, apperrors.NewValidationErrorWithCode(apperrors.CodeInvalidWeight, invalidWeightMessage)
	}
	return Impact{
		CO2SavedKg:     co2,
		DisposalMethod: DisposalMethod(wasteType),
	}, nil
}

func checkWeight(weightKg float64) error {
	if math.IsNaN(weightKg) || math.IsInf(weightKg, 0) || weightKg <= 0 {
		return apperrors.NewValidationErrorWithCode(apperrors.CodeInvalidWeight, invalidWeightMessage)
	}
	if weightKg > MaxWeightKg {
		return apperrors.NewValidationErrorWithCode(apperrors.CodeInvalidWeight, weightTooHeavyMessage)
	}
	return nil
}
