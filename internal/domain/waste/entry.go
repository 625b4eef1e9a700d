package waste

import (
	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

// BuildEntry derives impact for a validated draft and returns a pending entry
// owned by userID. ID and LoggedAt are left for the repository to assign.
func BuildEntry(userID string, n NormalizedEntry) (entities.WasteEntry, error) {
	impact, err := ComputeImpact(n.WasteType, n.WeightKg)
	if err != nil {
		return entities.WasteEntry{}, err
	}
	return entities.WasteEntry{
		UserID:             userID,
		WasteType:          n.WasteType,
		WeightKg:           n.WeightKg,
		ImageURL:           n.ImageURL,
		CO2SavedKg:         impact.CO2SavedKg,
		DisposalMethod:     impact.DisposalMethod,
		CollectionLocation: n.CollectionLocation,
		Region:             n.Region,
		CollectionStatus:   entities.CollectionStatusPending,
		CollectionDate:     n.CollectionDate,
		FacilityID:         n.FacilityID,
	}, nil
}
