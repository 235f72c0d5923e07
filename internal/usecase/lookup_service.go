package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pricecheck/backend/internal/domain"
	"github.com/pricecheck/backend/internal/logger"
	"github.com/pricecheck/backend/internal/metrics"
)

const (
	defaultTitle     = "Amazon Product"
	lookupKeyPrefix  = "lookup:"
	defaultLookupTTL = 15 * time.Minute

	// WarningPricingAccount is attached to lookups degraded by a 401/402 from the pricing API
	WarningPricingAccount = "Price data unavailable due to Keepa account issue."
	// WarningValidationSkipped is attached to resolutions whose ASIN could not be validated
	WarningValidationSkipped = "ASIN validation skipped due to Keepa account issue."
)

// LookupServiceConfig holds configuration for the lookup service
type LookupServiceConfig struct {
	MarketplaceDomain string
	PartnerTag        string
	CacheTTL          time.Duration
}

// LookupService turns a product link into a price snapshot and buy decision.
// Flow: identify -> check cache -> pricing API -> decide -> cache -> return
type LookupService struct {
	cache             domain.CacheRepository
	pricing           domain.PricingClient
	resolver          domain.RedirectResolver
	logger            logger.Logger
	metrics           *metrics.Metrics
	marketplaceDomain string
	partnerTag        string
	cacheTTL          time.Duration
	now               func() time.Time
}

// NewLookupService creates a new lookup service with dependencies
func NewLookupService(
	cache domain.CacheRepository,
	pricing domain.PricingClient,
	resolver domain.RedirectResolver,
	config LookupServiceConfig,
	log logger.Logger,
	m *metrics.Metrics,
) *LookupService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = defaultLookupTTL
	}
	marketplace := config.MarketplaceDomain
	if marketplace == "" {
		marketplace = "www.amazon.com"
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &LookupService{
		cache:             cache,
		pricing:           pricing,
		resolver:          resolver,
		logger:            log,
		metrics:           m,
		marketplaceDomain: marketplace,
		partnerTag:        config.PartnerTag,
		cacheTTL:          cacheTTL,
		now:               time.Now,
	}
}

// Lookup fetches the 30-day price picture for the product behind inputURL
func (s *LookupService) Lookup(ctx context.Context, inputURL string) (*domain.LookupResult, error) {
	if !s.pricing.Configured() {
		s.metrics.ObserveLookup("error")
		return nil, domain.ErrConfiguration
	}

	asin, resolvedURL, err := s.identify(ctx, inputURL)
	if err != nil {
		s.metrics.ObserveLookup("error")
		return nil, err
	}

	cacheKey := lookupKeyPrefix + asin
	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		// entries are keyed by ASIN; the resolved URL belongs to this call
		cached.ResolvedURL = resolvedURL
		s.metrics.ObserveLookup("cache_hit")
		return cached, nil
	}

	product, err := s.pricing.GetProduct(ctx, asin)
	if err != nil {
		if errors.Is(err, domain.ErrPricingUnauthorized) {
			s.logger.Warn("Pricing API account issue, returning partial result",
				logger.String("asin", asin), logger.Error(err))
			s.metrics.ObserveLookup("partial")
			return &domain.LookupResult{
				ASIN:        asin,
				Title:       defaultTitle,
				ResolvedURL: resolvedURL,
				ReferralURL: s.ReferralURL(asin),
				Warning:     WarningPricingAccount,
				CheckedAt:   s.now().UTC(),
			}, nil
		}
		s.metrics.ObserveLookup("error")
		return nil, err
	}

	if product.Stats == nil || product.Stats.Current == nil {
		s.metrics.ObserveLookup("out_of_stock")
		return nil, domain.ErrOutOfStock
	}

	snapshot := toSnapshot(product.Stats)
	decision := Decide(snapshot.CurrentPrice, snapshot.ThirtyDayAvg)

	title := strings.TrimSpace(product.Title)
	if title == "" {
		title = defaultTitle
	}

	result := &domain.LookupResult{
		ASIN:        asin,
		Title:       title,
		ResolvedURL: resolvedURL,
		Price:       snapshot,
		BuyDecision: &decision,
		ReferralURL: s.ReferralURL(asin),
		CheckedAt:   s.now().UTC(),
	}

	s.setInCache(ctx, cacheKey, result)
	s.metrics.ObserveLookup("success")
	return result, nil
}

// ResolveURL resolves inputURL to its final location and product identifier.
// When a pricing key is configured the identifier is also validated; on a
// validation failure the partial result is returned along with the error.
func (s *LookupService) ResolveURL(ctx context.Context, inputURL string) (*domain.ResolveResult, error) {
	asin, resolvedURL, err := s.identify(ctx, inputURL)
	if err != nil {
		return nil, err
	}

	result := &domain.ResolveResult{FinalURL: resolvedURL, ASIN: asin}
	if !s.pricing.Configured() {
		return result, nil
	}

	if _, err := s.pricing.GetProduct(ctx, asin); err != nil {
		if errors.Is(err, domain.ErrPricingUnauthorized) {
			result.Warning = WarningValidationSkipped
			return result, nil
		}
		s.logger.Warn("ASIN validation failed", logger.String("asin", asin), logger.Error(err))
		return result, err
	}
	return result, nil
}

// ReferralURL builds the partner link for an identifier
func (s *LookupService) ReferralURL(asin string) string {
	if s.partnerTag == "" {
		return fmt.Sprintf("https://%s/dp/%s", s.marketplaceDomain, asin)
	}
	return fmt.Sprintf("https://%s/dp/%s?tag=%s", s.marketplaceDomain, asin, s.partnerTag)
}

// identify returns the identifier and the URL it was extracted from
func (s *LookupService) identify(ctx context.Context, inputURL string) (string, string, error) {
	input := strings.TrimSpace(inputURL)
	if input == "" {
		return "", "", fmt.Errorf("%w: url is required", domain.ErrInvalidRequest)
	}

	if IsDirectIdentifier(input) {
		return input, input, nil
	}

	resolved := input
	if NeedsResolution(input) {
		res, err := s.resolver.Resolve(ctx, input)
		if err != nil {
			return "", "", err
		}
		resolved = res.FinalURL
		s.logger.Debug("Resolved short link",
			logger.String("input", input),
			logger.String("final", resolved),
			logger.Int("hops", res.Hops),
			logger.String("method", res.Method),
		)
	}

	asin, ok := ExtractIdentifier(resolved)
	if !ok {
		return "", resolved, domain.ErrIdentifierNotFound
	}
	return asin, resolved, nil
}

// toSnapshot converts minor units to major units; absent figures stay absent
func toSnapshot(stats *domain.PriceStats) *domain.PriceSnapshot {
	return &domain.PriceSnapshot{
		CurrentPrice:  float64(*stats.Current) / 100,
		ThirtyDayAvg:  toMajor(stats.Avg30),
		ThirtyDayHigh: toMajor(stats.High30),
		ThirtyDayLow:  toMajor(stats.Low30),
	}
}

func toMajor(minor *int64) *float64 {
	if minor == nil {
		return nil
	}
	v := float64(*minor) / 100
	return &v
}

func (s *LookupService) getFromCache(ctx context.Context, key string) (*domain.LookupResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("Cache read failed", logger.String("key", key), logger.Error(err))
		}
		s.metrics.ObserveCache(false)
		return nil, false
	}

	var result domain.LookupResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("Discarding undecodable cache entry", logger.String("key", key), logger.Error(err))
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Cache delete failed", logger.String("key", key), logger.Error(err))
		}
		s.metrics.ObserveCache(false)
		return nil, false
	}
	s.metrics.ObserveCache(true)
	return &result, true
}

func (s *LookupService) setInCache(ctx context.Context, key string, result *domain.LookupResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("Failed to encode lookup result", logger.String("key", key), logger.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("Cache write failed", logger.String("key", key), logger.Error(err))
	}
}
