package waste

import (
	"fmt"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

var statusRank = map[entities.CollectionStatus]int{
	entities.CollectionStatusPending:   0,
	entities.CollectionStatusScheduled: 1,
	entities.CollectionStatusCollected: 2,
}

// CheckTransition allows forward moves (skipping is fine) and same-status
// no-ops. Moving backward is a conflict.
func CheckTransition(from, to entities.CollectionStatus) error {
	toRank, ok := statusRank[to]
	if !ok {
		return apperrors.NewValidationErrorWithCode(apperrors.CodeInvalidStatus,
			fmt.Sprintf("invalid collection status %q", to))
	}
	fromRank, ok := statusRank[from]
	if !ok {
		// Unknown stored status: let any valid status overwrite it.
		return nil
	}
	if toRank < fromRank {
		return apperrors.NewConflictErrorWithCode(apperrors.CodeInvalidStatusTransition,
			fmt.Sprintf("cannot move collection status from %s back to %s", from, to))
	}
	return nil
}
