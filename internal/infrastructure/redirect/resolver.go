// Package redirect follows shortened links hop by hop without letting the
// HTTP client auto-follow, so every status code and Location header can be
// inspected and the hop bound enforced.
package redirect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/pricecheck/backend/internal/domain"
	"github.com/pricecheck/backend/internal/logger"
	"github.com/pricecheck/backend/internal/metrics"
)

const (
	// DefaultMaxHops bounds one redirect chain
	DefaultMaxHops = 10
	// DefaultHopTimeout bounds a single hop request
	DefaultHopTimeout = 15 * time.Second
)

// shortPathRegex matches a.co links, which often answer HEAD without a redirect.
var shortPathRegex = regexp.MustCompile(`(?i)a\.co/`)

// Config configures a Resolver
type Config struct {
	MaxHops    int
	HopTimeout time.Duration
	UserAgent  string
}

// Resolver discovers the destination of a shortened URL
type Resolver struct {
	httpClient *http.Client
	maxHops    int
	hopTimeout time.Duration
	userAgent  string
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// NewResolver creates a Resolver. A nil client gets a default transport.
// Redirect following is always disabled on the client used.
func NewResolver(client *http.Client, cfg Config, log logger.Logger, m *metrics.Metrics) *Resolver {
	if client == nil {
		client = &http.Client{}
	} else {
		c := *client
		client = &c
	}
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	if cfg.MaxHops <= 0 {
		cfg.MaxHops = DefaultMaxHops
	}
	if cfg.HopTimeout <= 0 {
		cfg.HopTimeout = DefaultHopTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Resolver{
		httpClient: client,
		maxHops:    cfg.MaxHops,
		hopTimeout: cfg.HopTimeout,
		userAgent:  cfg.UserAgent,
		logger:     log,
		metrics:    m,
	}
}

// Resolve follows rawURL with HEAD requests, falling back to GET when HEAD
// fails outright or makes no progress on an a.co link. It only returns an
// error when both chains fail at the transport level.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*domain.Resolution, error) {
	r.logger.Debug("Resolving shortened URL", logger.String("url", rawURL))

	head, err := r.follow(ctx, http.MethodHead, rawURL)
	if err == nil {
		r.logger.Debug("HEAD chain finished",
			logger.String("final_url", head.FinalURL),
			logger.Int("hops", head.Hops),
		)
		if head.FinalURL != rawURL || !shortPathRegex.MatchString(rawURL) {
			r.metrics.ObserveHops(head.Hops)
			return head, nil
		}
	} else {
		r.logger.Warn("HEAD chain failed, trying GET chain", logger.String("url", rawURL), logger.Error(err))
	}

	get, getErr := r.follow(ctx, http.MethodGet, rawURL)
	if getErr != nil {
		if err == nil {
			// HEAD succeeded without progress; its answer is still the best known URL.
			r.logger.Warn("GET chain failed after HEAD made no progress", logger.Error(getErr))
			r.metrics.ObserveHops(head.Hops)
			return head, nil
		}
		r.logger.Error("Both HEAD and GET chains failed", logger.String("url", rawURL), logger.Error(getErr))
		return nil, fmt.Errorf("%w: %v", domain.ErrRedirectResolution, getErr)
	}

	r.logger.Debug("GET chain finished",
		logger.String("final_url", get.FinalURL),
		logger.Int("hops", get.Hops),
	)
	r.metrics.ObserveHops(get.Hops)
	return get, nil
}

// follow runs one bounded chain with the given method. Hops are strictly
// sequential because each destination comes from the previous response.
func (r *Resolver) follow(ctx context.Context, method, start string) (*domain.Resolution, error) {
	current := start
	hops := 0

	for i := 0; i < r.maxHops; i++ {
		status, location, err := r.hop(ctx, method, current)
		if err != nil {
			return nil, err
		}

		next, ok := nextHop(status, location, current)
		if !ok {
			break
		}
		current = next
		hops++
	}

	return &domain.Resolution{FinalURL: current, Hops: hops, Method: method}, nil
}

// hop issues a single request under its own timeout and returns the status
// and raw Location header.
func (r *Resolver) hop(ctx context.Context, method, target string) (int, string, error) {
	hopCtx, cancel := context.WithTimeout(ctx, r.hopTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(hopCtx, method, target, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	// Drain a little so keep-alive connections can be reused.
	_, _ = io.CopyN(io.Discard, resp.Body, 64<<10)

	return resp.StatusCode, resp.Header.Get("Location"), nil
}

// nextHop decides whether the chain continues. 2xx stops at current; 3xx with
// a usable Location continues at the absolute Location; anything else stops.
func nextHop(status int, location, current string) (string, bool) {
	if status < 300 || status >= 400 || location == "" {
		return "", false
	}

	base, err := url.Parse(current)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
