package redirect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricecheck/backend/internal/domain"
	"github.com/pricecheck/backend/internal/logger"
	"github.com/pricecheck/backend/internal/metrics"
)

// requestLog records method and path of every request the test server sees
type requestLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, r.Method+" "+r.URL.Path)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func newTestResolver(cfg Config) *Resolver {
	return NewResolver(nil, cfg, logger.NewNop(), metrics.New())
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(nil, Config{}, nil, nil)

	assert.Equal(t, DefaultMaxHops, r.maxHops)
	assert.Equal(t, DefaultHopTimeout, r.hopTimeout)
	assert.NotNil(t, r.httpClient.CheckRedirect)
	assert.NotNil(t, r.logger)
}

func TestNewResolver_DoesNotMutateClient(t *testing.T) {
	client := &http.Client{}
	NewResolver(client, Config{}, nil, nil)
	assert.Nil(t, client.CheckRedirect)
}

func TestResolve_FollowsChain(t *testing.T) {
	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		switch r.URL.Path {
		case "/start":
			w.Header().Set("Location", "/a")
			w.WriteHeader(http.StatusMultipleChoices)
		case "/a":
			w.Header().Set("Location", "/b")
			w.WriteHeader(http.StatusMultipleChoices)
		case "/b":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	res, err := newTestResolver(Config{}).Resolve(context.Background(), server.URL+"/start")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/b", res.FinalURL)
	assert.Equal(t, 2, res.Hops)
	assert.Equal(t, http.MethodHead, res.Method)
	assert.Equal(t, []string{"HEAD /start", "HEAD /a", "HEAD /b"}, log.all())
}

func TestResolve_HopBoundExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /loop/n redirects to /loop/n+1 forever
		w.Header().Set("Location", r.URL.Path+"x")
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	res, err := newTestResolver(Config{MaxHops: 3}).Resolve(context.Background(), server.URL+"/loop")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/loopxxx", res.FinalURL)
	assert.Equal(t, 3, res.Hops)
}

func TestResolve_StopsWithoutLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			w.Header().Set("Location", "/gone")
			w.WriteHeader(http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusFound) // 3xx but no Location
	}))
	defer server.Close()

	res, err := newTestResolver(Config{}).Resolve(context.Background(), server.URL+"/start")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/gone", res.FinalURL)
	assert.Equal(t, 1, res.Hops)
}

func TestResolve_StopsOnClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	res, err := newTestResolver(Config{}).Resolve(context.Background(), server.URL+"/blocked")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/blocked", res.FinalURL)
	assert.Equal(t, 0, res.Hops)
}

func TestResolve_AbsoluteLocation(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", target.URL+"/dp/B08N5WRWNW?ref=x")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer short.Close()

	res, err := newTestResolver(Config{}).Resolve(context.Background(), short.URL+"/abc")

	require.NoError(t, err)
	assert.Equal(t, target.URL+"/dp/B08N5WRWNW?ref=x", res.FinalURL)
}

func TestResolve_ShortPathFallsBackToGet(t *testing.T) {
	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		if r.URL.Path == "/a.co/d/xyz" && r.Method == http.MethodGet {
			w.Header().Set("Location", "/dp/B08N5WRWNW")
			w.WriteHeader(http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	res, err := newTestResolver(Config{}).Resolve(context.Background(), server.URL+"/a.co/d/xyz")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/dp/B08N5WRWNW", res.FinalURL)
	assert.Equal(t, http.MethodGet, res.Method)
	assert.Equal(t, 1, res.Hops)
	assert.Equal(t, []string{"HEAD /a.co/d/xyz", "GET /a.co/d/xyz", "GET /dp/B08N5WRWNW"}, log.all())
}

func TestResolve_NoProgressWithoutShortPathKeepsHead(t *testing.T) {
	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	res, err := newTestResolver(Config{}).Resolve(context.Background(), server.URL+"/amzn.to/xyz")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/amzn.to/xyz", res.FinalURL)
	assert.Equal(t, http.MethodHead, res.Method)
	assert.Equal(t, []string{"HEAD /amzn.to/xyz"}, log.all())
}

func TestResolve_HeadTransportErrorFallsBackToGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		if r.URL.Path == "/short" {
			w.Header().Set("Location", "/dp/B07FZ8S74R")
			w.WriteHeader(http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	res, err := newTestResolver(Config{}).Resolve(context.Background(), server.URL+"/short")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/dp/B07FZ8S74R", res.FinalURL)
	assert.Equal(t, http.MethodGet, res.Method)
}

func TestResolve_BothChainsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachable := server.URL + "/short"
	server.Close()

	res, err := newTestResolver(Config{}).Resolve(context.Background(), unreachable)

	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRedirectResolution)
}

func TestResolve_HopTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	start := time.Now()
	_, err := newTestResolver(Config{HopTimeout: 50 * time.Millisecond}).Resolve(context.Background(), server.URL+"/slow")

	assert.ErrorIs(t, err, domain.ErrRedirectResolution)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve_SendsUserAgent(t *testing.T) {
	agents := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestResolver(Config{UserAgent: "TestAgent/1.0"}).Resolve(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "TestAgent/1.0", <-agents)
}

func TestNextHop(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		location string
		current  string
		want     string
		wantOK   bool
	}{
		{"2xx stops", 200, "", "https://a.co/x", "", false},
		{"2xx ignores location", 204, "https://b.example/", "https://a.co/x", "", false},
		{"3xx relative", 302, "/dp/B08N5WRWNW", "https://amzn.to/abc", "https://amzn.to/dp/B08N5WRWNW", true},
		{"3xx absolute", 301, "https://www.amazon.com/dp/B08N5WRWNW", "https://amzn.to/abc", "https://www.amazon.com/dp/B08N5WRWNW", true},
		{"3xx protocol relative", 307, "//www.amazon.com/dp/X", "https://amzn.to/abc", "https://www.amazon.com/dp/X", true},
		{"3xx without location", 302, "", "https://amzn.to/abc", "", false},
		{"3xx unparseable location", 302, "http://[::1", "https://amzn.to/abc", "", false},
		{"4xx stops", 404, "/x", "https://amzn.to/abc", "", false},
		{"5xx stops", 503, "/x", "https://amzn.to/abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nextHop(tt.status, tt.location, tt.current)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
