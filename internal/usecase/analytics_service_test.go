package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pricecheck/backend/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAnalyticsService(t *testing.T, repo *MockAnalyticsRepository) (*AnalyticsService, *fakeClock) {
	t.Helper()
	svc, err := NewAnalyticsService(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("NewAnalyticsService() error = %v", err)
	}
	clock := &fakeClock{t: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, clock
}

func TestNewAnalyticsService_LoadError(t *testing.T) {
	_, err := NewAnalyticsService(context.Background(), &MockAnalyticsRepository{loadErr: errors.New("permission denied")}, nil)
	if err == nil {
		t.Fatal("expected load error")
	}
}

func TestRecord_CountsKnownEvents(t *testing.T) {
	ctx := context.Background()
	repo := &MockAnalyticsRepository{}
	svc, clock := newTestAnalyticsService(t, repo)

	names := []string{domain.EventCTAiOS, domain.EventCTAiOS, domain.EventCTAAndroid, domain.EventCTADesktop, "page_view"}
	for _, name := range names {
		if err := svc.Record(ctx, name, "client-1"); err != nil {
			t.Fatalf("Record(%s) error = %v", name, err)
		}
		clock.Advance(time.Second)
	}

	stats := svc.Stats(ctx)
	want := domain.CTAStats{IOS: 2, Android: 1, Desktop: 1, Total: 4}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}

	events := svc.RecentEvents(ctx)
	if len(events) != 5 {
		t.Fatalf("RecentEvents() len = %d, want 5", len(events))
	}
	if events[4].Name != "page_view" || events[4].ID == "" {
		t.Errorf("last event = %+v", events[4])
	}
	if events[0].TS != time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("first event ts = %d", events[0].TS)
	}
	if repo.saves != 5 {
		t.Errorf("saves = %d, want 5", repo.saves)
	}
}

func TestRecord_MissingName(t *testing.T) {
	svc, _ := newTestAnalyticsService(t, &MockAnalyticsRepository{})

	if err := svc.Record(context.Background(), "", "c"); !errors.Is(err, domain.ErrMissingEventName) {
		t.Errorf("error = %v, want ErrMissingEventName", err)
	}
}

func TestRecord_DedupWindow(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestAnalyticsService(t, &MockAnalyticsRepository{})

	if err := svc.Record(ctx, domain.EventCTAiOS, "a"); err != nil {
		t.Fatalf("first Record() error = %v", err)
	}

	clock.Advance(500 * time.Millisecond)
	if err := svc.Record(ctx, domain.EventCTAiOS, "a"); !errors.Is(err, domain.ErrDuplicateEvent) {
		t.Errorf("repeat inside window error = %v, want ErrDuplicateEvent", err)
	}

	// other clients and other names are independent
	if err := svc.Record(ctx, domain.EventCTAiOS, "b"); err != nil {
		t.Errorf("other client error = %v", err)
	}
	if err := svc.Record(ctx, domain.EventCTAAndroid, "a"); err != nil {
		t.Errorf("other name error = %v", err)
	}

	clock.Advance(400 * time.Millisecond)
	if err := svc.Record(ctx, domain.EventCTAiOS, "a"); err != nil {
		t.Errorf("repeat after window error = %v", err)
	}

	if got := svc.Stats(ctx).IOS; got != 3 {
		t.Errorf("IOS = %d, want 3", got)
	}
}

func TestRecord_CapsEventLog(t *testing.T) {
	ctx := context.Background()
	repo := &MockAnalyticsRepository{}
	svc, clock := newTestAnalyticsService(t, repo)

	for i := 0; i < maxStoredEvents+25; i++ {
		if err := svc.Record(ctx, fmt.Sprintf("event_%d", i), "c"); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		clock.Advance(time.Millisecond)
	}

	if n := len(repo.state.Events); n != maxStoredEvents {
		t.Errorf("stored events = %d, want %d", n, maxStoredEvents)
	}
	if first := repo.state.Events[0].Name; first != "event_25" {
		t.Errorf("oldest kept event = %q, want event_25", first)
	}

	recent := svc.RecentEvents(ctx)
	if len(recent) != maxRecentEvents {
		t.Errorf("RecentEvents() len = %d, want %d", len(recent), maxRecentEvents)
	}
	if last := recent[len(recent)-1].Name; last != fmt.Sprintf("event_%d", maxStoredEvents+24) {
		t.Errorf("newest event = %q", last)
	}
}

func TestRecord_SaveErrorIsNotReturned(t *testing.T) {
	svc, _ := newTestAnalyticsService(t, &MockAnalyticsRepository{saveErr: errors.New("read-only filesystem")})

	if err := svc.Record(context.Background(), domain.EventCTADesktop, "c"); err != nil {
		t.Errorf("Record() error = %v, want nil", err)
	}
	if got := svc.Stats(context.Background()).Desktop; got != 1 {
		t.Errorf("Desktop = %d, want 1", got)
	}
}

func TestAnalytics_ResumesPersistedState(t *testing.T) {
	repo := &MockAnalyticsRepository{state: &domain.AnalyticsState{
		CTAiOS:     4,
		CTAAndroid: 2,
		Events:     []domain.AnalyticsEvent{{Name: domain.EventCTAiOS, TS: 1}},
	}}
	svc, _ := newTestAnalyticsService(t, repo)

	stats := svc.Stats(context.Background())
	if stats.Total != 6 {
		t.Errorf("Total = %d, want 6", stats.Total)
	}
	if len(svc.RecentEvents(context.Background())) != 1 {
		t.Errorf("expected persisted event to be loaded")
	}
}
