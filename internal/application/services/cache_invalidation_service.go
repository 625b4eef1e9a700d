package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/providers"
)

// CacheInvalidationService drops cached reads when waste events arrive, so
// instances that did not perform the write also stop serving stale data.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelWasteUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to waste updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("cache invalidation service stopped")
}

// Done is closed once the event loop has exited
func (s *CacheInvalidationService) Done() <-chan struct{} {
	return s.done
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.WasteEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.HandleEvent(event)
		}
	}
}

// HandleEvent invalidates the caches affected by one event
func (s *CacheInvalidationService) HandleEvent(event *entities.WasteEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var patterns []string
	switch event.EventType {
	case entities.WasteEventTypeEntryLogged,
		entities.WasteEventTypeEntryDeleted,
		entities.WasteEventTypeProfileReconciled:
		patterns = []string{LeaderboardCachePattern, providers.StatsCachePattern}
	case entities.WasteEventTypeFacilityChanged:
		patterns = []string{providers.FacilitiesCachePattern, providers.StatsCachePattern}
	default:
		return
	}

	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Str("event_id", event.ID).Msg("failed to invalidate cache")
			continue
		}
		log.Debug().Str("pattern", pattern).Str("event_type", string(event.EventType)).Msg("cache invalidated")
	}
}

// InvalidateAll drops every derived cache, used after bulk imports and
// manual corrections.
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	for _, pattern := range []string{LeaderboardCachePattern, providers.FacilitiesCachePattern, providers.StatsCachePattern} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return nil
}
