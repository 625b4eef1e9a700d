package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/providers"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/observability"
)

// ErrReconcileRunning is returned when a pass is already in progress.
var ErrReconcileRunning = errors.New("reconciliation already running")

// ReconcileSummary aggregates one reconciliation pass
type ReconcileSummary struct {
	Users    int                             `json:"users"`
	Drifted  int                             `json:"drifted"`
	Failed   int                             `json:"failed"`
	Results  []*repositories.ReconcileResult `json:"results,omitempty"`
	Duration time.Duration                   `json:"duration"`
}

// ReconciliationService recomputes profile totals from the entry log
type ReconciliationService struct {
	users    repositories.UserRepository
	ledger   repositories.WasteLedger
	eventBus providers.EventBus
	metrics  *observability.Metrics

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(users repositories.UserRepository, ledger repositories.WasteLedger, eventBus providers.EventBus, metrics *observability.Metrics) *ReconciliationService {
	return &ReconciliationService{
		users:    users,
		ledger:   ledger,
		eventBus: eventBus,
		metrics:  metrics,
	}
}

// ReconcileUser reconciles a single user
func (s *ReconciliationService) ReconcileUser(ctx context.Context, userID string) (*repositories.ReconcileResult, error) {
	result, err := s.ledger.ReconcileUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if result.Drifted {
		observability.RecordProfileDrift(ctx, s.metrics)
		log.Warn().
			Str("user_id", userID).
			Int64("points_before", result.Before.Points).
			Int64("points_after", result.After.Points).
			Float64("co2_before", result.Before.TotalCO2SavedKg).
			Float64("co2_after", result.After.TotalCO2SavedKg).
			Msg("profile totals drifted, rewritten from entry log")
		after := result.After
		publishWasteEvent(ctx, s.eventBus, entities.NewWasteEvent(entities.WasteEventTypeProfileReconciled, userID, "", &after))
	}
	return result, nil
}

// ReconcileAll reconciles every user. A failure for one user is logged and
// counted; the pass continues. Overlapping passes are skipped.
func (s *ReconciliationService) ReconcileAll(ctx context.Context) (*ReconcileSummary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrReconcileRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ReconcileSummary{Users: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result, err := s.ReconcileUser(ctx, id)
		if err != nil {
			summary.Failed++
			log.Error().Err(err).Str("user_id", id).Msg("reconciliation failed")
			continue
		}
		if result.Drifted {
			summary.Drifted++
			summary.Results = append(summary.Results, result)
		}
	}
	summary.Duration = time.Since(start)

	log.Info().
		Int("users", summary.Users).
		Int("drifted", summary.Drifted).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("reconciliation pass complete")
	return summary, nil
}

// Start schedules ReconcileAll on a cron spec such as "@every 15m"
func (s *ReconciliationService) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.ReconcileAll(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled reconciliation failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	log.Info().Str("schedule", schedule).Msg("reconciliation scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish
func (s *ReconciliationService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	log.Info().Msg("reconciliation scheduler stopped")
}
