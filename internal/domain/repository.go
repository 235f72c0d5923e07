package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PricingClient defines the interface for the Keepa pricing API
type PricingClient interface {
	// Configured reports whether an API key is present.
	Configured() bool
	GetProduct(ctx context.Context, asin string) (*PricingProduct, error)
}

// RedirectResolver follows shortened links to their destination
type RedirectResolver interface {
	Resolve(ctx context.Context, rawURL string) (*Resolution, error)
}

// SubscriberRepository persists email signups
type SubscriberRepository interface {
	List(ctx context.Context) ([]string, error)
	Append(ctx context.Context, email string) error
	Export(ctx context.Context) ([]byte, error)
}

// AnalyticsRepository persists analytics state
type AnalyticsRepository interface {
	Load(ctx context.Context) (*AnalyticsState, error)
	Save(ctx context.Context, state *AnalyticsState) error
}
