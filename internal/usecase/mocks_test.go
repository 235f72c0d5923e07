package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/pricecheck/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data         map[string][]byte
	getError     error
	setError     error
	getCalled    bool
	setCalled    bool
	deleteCalled bool
	lastTTL      time.Duration
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	m.lastTTL = ttl
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.deleteCalled = true
	delete(m.data, key)
	return nil
}

// MockPricingClient is a mock implementation of domain.PricingClient
type MockPricingClient struct {
	configured bool
	product    *domain.PricingProduct
	err        error
	calls      int
	lastASIN   string
}

func NewMockPricingClient() *MockPricingClient {
	return &MockPricingClient{configured: true}
}

func (m *MockPricingClient) Configured() bool {
	return m.configured
}

func (m *MockPricingClient) GetProduct(ctx context.Context, asin string) (*domain.PricingProduct, error) {
	m.calls++
	m.lastASIN = asin
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

// MockResolver is a mock implementation of domain.RedirectResolver
type MockResolver struct {
	finalURL string
	err      error
	calls    int
}

func (m *MockResolver) Resolve(ctx context.Context, rawURL string) (*domain.Resolution, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Resolution{FinalURL: m.finalURL, Hops: 1, Method: "HEAD"}, nil
}

// MockSubscriberRepository is an in-memory domain.SubscriberRepository
type MockSubscriberRepository struct {
	mu        sync.Mutex
	emails    []string
	listErr   error
	appendErr error
	exportErr error
}

func (m *MockSubscriberRepository) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]string{}, m.emails...), nil
}

func (m *MockSubscriberRepository) Append(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.emails = append(m.emails, email)
	return nil
}

func (m *MockSubscriberRepository) Export(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	var out []byte
	for _, e := range m.emails {
		out = append(out, e+"\n"...)
	}
	return out, nil
}

// MockAnalyticsRepository is an in-memory domain.AnalyticsRepository
type MockAnalyticsRepository struct {
	state   *domain.AnalyticsState
	loadErr error
	saveErr error
	saves   int
}

func (m *MockAnalyticsRepository) Load(ctx context.Context) (*domain.AnalyticsState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.state == nil {
		return &domain.AnalyticsState{}, nil
	}
	return m.state, nil
}

func (m *MockAnalyticsRepository) Save(ctx context.Context, state *domain.AnalyticsState) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state
	return nil
}

func int64Ptr(v int64) *int64 { return &v }
