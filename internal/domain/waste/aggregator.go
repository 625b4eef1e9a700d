package waste

import (
	"math"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

// PointsFor returns the points awarded for a weight: floor(weightKg * 10).
func PointsFor(weightKg float64) int64 {
	return int64(math.Floor(weightKg * 10))
}

// ApplyNewEntry adds one committed entry to a user's running totals.
func ApplyNewEntry(totals entities.ProfileTotals, entry entities.WasteEntry) entities.ProfileTotals {
	return entities.ProfileTotals{
		TotalCO2SavedKg:      totals.TotalCO2SavedKg + entry.CO2SavedKg,
		TotalWasteRecycledKg: totals.TotalWasteRecycledKg + entry.WeightKg,
		Points:               totals.Points + PointsFor(entry.WeightKg),
	}
}

// RevertEntry removes a deleted entry's contribution. Totals never go
// below zero, which absorbs float drift on the last entry.
func RevertEntry(totals entities.ProfileTotals, entry entities.WasteEntry) entities.ProfileTotals {
	return entities.ProfileTotals{
		TotalCO2SavedKg:      max(0, totals.TotalCO2SavedKg-entry.CO2SavedKg),
		TotalWasteRecycledKg: max(0, totals.TotalWasteRecycledKg-entry.WeightKg),
		Points:               max(0, totals.Points-PointsFor(entry.WeightKg)),
	}
}

// Recompute folds entries in the given order starting from zero totals.
func Recompute(entries []entities.WasteEntry) entities.ProfileTotals {
	var totals entities.ProfileTotals
	for _, e := range entries {
		totals = ApplyNewEntry(totals, e)
	}
	return totals
}

// Drifted reports whether stored totals disagree with recomputed ones
// beyond tolerance for the float sums. Points must match exactly.
func Drifted(stored, recomputed entities.ProfileTotals, tolerance float64) bool {
	return stored.Points != recomputed.Points ||
		math.Abs(stored.TotalCO2SavedKg-recomputed.TotalCO2SavedKg) > tolerance ||
		math.Abs(stored.TotalWasteRecycledKg-recomputed.TotalWasteRecycledKg) > tolerance
}
