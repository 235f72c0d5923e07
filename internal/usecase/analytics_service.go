package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pricecheck/backend/internal/domain"
	"github.com/pricecheck/backend/internal/logger"
)

const (
	maxStoredEvents  = 1000
	maxRecentEvents  = 100
	defaultDedupSpan = 800 * time.Millisecond
)

// AnalyticsService counts CTA clicks and keeps a bounded event log
type AnalyticsService struct {
	repo   domain.AnalyticsRepository
	logger logger.Logger
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	state    *domain.AnalyticsState
	lastSeen map[string]time.Time
}

// NewAnalyticsService loads persisted state and returns a ready service
func NewAnalyticsService(ctx context.Context, repo domain.AnalyticsRepository, log logger.Logger) (*AnalyticsService, error) {
	if log == nil {
		log = logger.NewNop()
	}
	state, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}
	if state.Events == nil {
		state.Events = []domain.AnalyticsEvent{}
	}
	return &AnalyticsService{
		repo:     repo,
		logger:   log,
		window:   defaultDedupSpan,
		now:      time.Now,
		state:    state,
		lastSeen: make(map[string]time.Time),
	}, nil
}

// Record stores one event. Repeats of the same name from the same client
// inside the dedup window return ErrDuplicateEvent.
func (s *AnalyticsService) Record(ctx context.Context, name, client string) error {
	if name == "" {
		return domain.ErrMissingEventName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := client + "|" + name
	if last, ok := s.lastSeen[key]; ok && now.Sub(last) < s.window {
		return domain.ErrDuplicateEvent
	}
	s.lastSeen[key] = now
	s.pruneSeen(now)

	switch name {
	case domain.EventCTAiOS:
		s.state.CTAiOS++
	case domain.EventCTAAndroid:
		s.state.CTAAndroid++
	case domain.EventCTADesktop:
		s.state.CTADesktop++
	}

	s.state.Events = append(s.state.Events, domain.AnalyticsEvent{
		ID:   uuid.NewString(),
		Name: name,
		TS:   now.UnixMilli(),
	})
	if n := len(s.state.Events); n > maxStoredEvents {
		s.state.Events = append([]domain.AnalyticsEvent(nil), s.state.Events[n-maxStoredEvents:]...)
	}

	if err := s.repo.Save(ctx, s.state); err != nil {
		s.logger.Error("Failed to persist analytics", logger.Error(err))
	}

	s.logger.Debug("Analytics event recorded", logger.String("name", name))
	return nil
}

// Stats returns the CTA counters
func (s *AnalyticsService) Stats(ctx context.Context) domain.CTAStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.CTAStats{
		IOS:     s.state.CTAiOS,
		Android: s.state.CTAAndroid,
		Desktop: s.state.CTADesktop,
		Total:   s.state.CTAiOS + s.state.CTAAndroid + s.state.CTADesktop,
	}
}

// RecentEvents returns a copy of the last 100 events, oldest first
func (s *AnalyticsService) RecentEvents(ctx context.Context) []domain.AnalyticsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.state.Events
	if len(events) > maxRecentEvents {
		events = events[len(events)-maxRecentEvents:]
	}
	out := make([]domain.AnalyticsEvent, len(events))
	copy(out, events)
	return out
}

// pruneSeen drops dedup entries older than the window. Caller holds mu.
func (s *AnalyticsService) pruneSeen(now time.Time) {
	if len(s.lastSeen) < 1024 {
		return
	}
	for k, t := range s.lastSeen {
		if now.Sub(t) >= s.window {
			delete(s.lastSeen, k)
		}
	}
}
