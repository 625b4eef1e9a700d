package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/providers"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/domain/waste"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

// LogResult is the outcome of a committed submission.
type LogResult struct {
	Entry   *entities.WasteEntry  `json:"entry"`
	Profile *entities.UserProfile `json:"profile"`
}

// WasteLogService runs the submission pipeline and the entry lifecycle.
type WasteLogService struct {
	logs      repositories.WasteLogRepository
	ledger    repositories.WasteLedger
	eventBus  providers.EventBus
	validator *waste.Validator
	metrics   *observability.Metrics
}

// NewWasteLogService creates a new waste log service. eventBus and metrics
// may be nil.
func NewWasteLogService(
	logs repositories.WasteLogRepository,
	ledger repositories.WasteLedger,
	eventBus providers.EventBus,
	validator *waste.Validator,
	metrics *observability.Metrics,
) *WasteLogService {
	return &WasteLogService{
		logs:      logs,
		ledger:    ledger,
		eventBus:  eventBus,
		validator: validator,
		metrics:   metrics,
	}
}

// Log validates the draft, derives its impact and commits it together with
// the owner's new totals.
func (s *WasteLogService) Log(ctx context.Context, user *entities.User, draft waste.Draft) (*LogResult, error) {
	ctx, span := observability.StartSpan(ctx, "WasteLogService.Log")
	defer span.End()

	normalized, err := s.validator.Validate(draft)
	if err != nil {
		return nil, err
	}

	entry, err := waste.BuildEntry(user.ID, normalized)
	if err != nil {
		return nil, err
	}

	owner, err := s.ledger.RecordEntry(ctx, &entry)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.SetSpanAttributes(span,
		attribute.String("waste.type", string(entry.WasteType)),
		attribute.Float64("waste.weight_kg", entry.WeightKg),
	)
	observability.RecordEntryLogged(ctx, s.metrics, string(entry.WasteType), entry.CO2SavedKg)

	totals := owner.ProfileTotals
	s.publish(ctx, entities.NewWasteEvent(entities.WasteEventTypeEntryLogged, owner.ID, entry.ID, &totals))

	profile := owner.Profile()
	return &LogResult{Entry: &entry, Profile: &profile}, nil
}

// ListMine returns the user's entries newest first. A limit of zero or less
// returns all of them.
func (s *WasteLogService) ListMine(ctx context.Context, userID string, limit int) ([]*entities.WasteEntry, error) {
	if limit < 0 {
		limit = 0
	}
	return s.logs.ListByUser(ctx, userID, limit)
}

// ListAll returns a page of entries across users
func (s *WasteLogService) ListAll(ctx context.Context, filter repositories.WasteLogFilter) ([]*entities.WasteEntry, int, error) {
	return s.logs.ListAll(ctx, filter)
}

// Get returns one entry. Non-admins only see their own.
func (s *WasteLogService) Get(ctx context.Context, caller *entities.User, id string) (*entities.WasteEntry, error) {
	entry, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID != caller.ID && !caller.IsAdmin() {
		return nil, apperrors.NewNotFoundError("Waste log not found")
	}
	return entry, nil
}

// UpdateStatus moves an entry forward through pending, scheduled and
// collected. Setting the current status again is a no-op.
func (s *WasteLogService) UpdateStatus(ctx context.Context, id, rawStatus string) (*entities.WasteEntry, error) {
	status, ok := entities.ParseCollectionStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationErrorWithCode(apperrors.CodeInvalidStatus,
			fmt.Sprintf("invalid collection status %q", rawStatus))
	}

	current, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := waste.CheckTransition(current.CollectionStatus, status); err != nil {
		return nil, err
	}
	if current.CollectionStatus == status {
		return current, nil
	}

	updated, err := s.logs.UpdateStatus(ctx, id, current.CollectionStatus, status)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, entities.NewWasteEvent(entities.WasteEventTypeStatusChanged, updated.UserID, updated.ID, nil))
	return updated, nil
}

// Delete removes an entry and reverts its contribution to the owner's
// totals. Only the owner or an admin may delete.
func (s *WasteLogService) Delete(ctx context.Context, caller *entities.User, id string) error {
	entry, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.UserID != caller.ID && !caller.IsAdmin() {
		return apperrors.NewForbiddenError("you can only delete your own waste logs")
	}

	removed, owner, err := s.ledger.RemoveEntry(ctx, id)
	if err != nil {
		return err
	}

	totals := owner.ProfileTotals
	s.publish(ctx, entities.NewWasteEvent(entities.WasteEventTypeEntryDeleted, owner.ID, removed.ID, &totals))
	return nil
}

// publish fans an event out to the global and per-user channels. Failures
// are logged; the write has already committed.
func (s *WasteLogService) publish(ctx context.Context, event *entities.WasteEvent) {
	publishWasteEvent(ctx, s.eventBus, event)
}

func publishWasteEvent(ctx context.Context, bus providers.EventBus, event *entities.WasteEvent) {
	if bus == nil {
		return
	}
	channels := []string{providers.EventChannelWasteUpdates}
	if event.UserID != "" {
		channels = append(channels, providers.GetUserChannel(event.UserID))
	}
	for _, channel := range channels {
		if err := bus.Publish(ctx, channel, event); err != nil {
			log.Warn().Err(err).Str("channel", channel).Str("event_type", string(event.EventType)).Msg("failed to publish waste event")
		}
	}
}
