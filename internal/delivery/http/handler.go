package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricecheck/backend/internal/domain"
	"github.com/pricecheck/backend/internal/logger"
)

// maxAnalyticsBody bounds beacon payloads
const maxAnalyticsBody = 16 << 10

// LookupUseCase resolves links and fetches price data
type LookupUseCase interface {
	Lookup(ctx context.Context, inputURL string) (*domain.LookupResult, error)
	ResolveURL(ctx context.Context, inputURL string) (*domain.ResolveResult, error)
}

// SubscriptionUseCase manages email signups
type SubscriptionUseCase interface {
	Subscribe(ctx context.Context, email string) (string, error)
	List(ctx context.Context) ([]string, error)
	Export(ctx context.Context) ([]byte, error)
}

// AnalyticsUseCase records CTA events
type AnalyticsUseCase interface {
	Record(ctx context.Context, name, client string) error
	Stats(ctx context.Context) domain.CTAStats
	RecentEvents(ctx context.Context) []domain.AnalyticsEvent
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	lookup        LookupUseCase
	subscriptions SubscriptionUseCase
	analytics     AnalyticsUseCase
	logger        logger.Logger
}

// NewHandler creates a new HTTP handler. Nil use cases answer 503.
func NewHandler(lookup LookupUseCase, subscriptions SubscriptionUseCase, analytics AnalyticsUseCase, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		lookup:        lookup,
		subscriptions: subscriptions,
		analytics:     analytics,
		logger:        log,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"message": "Server is running",
	})
}

// ResolveURL follows a short link and returns the final URL and ASIN
func (h *Handler) ResolveURL(c *gin.Context) {
	if h.lookup == nil {
		notConfigured(c)
		return
	}

	var req domain.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required", "success": false})
		return
	}

	result, err := h.lookup.ResolveURL(c.Request.Context(), req.URL)
	if err != nil {
		h.writeResolveError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Lookup returns the price snapshot and buy decision for a URL.
// The URL comes from ?url= on GET and from the JSON body on POST.
func (h *Handler) Lookup(c *gin.Context) {
	if h.lookup == nil {
		notConfigured(c)
		return
	}

	var req domain.LookupRequest
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	result, err := h.lookup.Lookup(c.Request.Context(), req.URL)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Subscribe adds an email to the subscriber list
func (h *Handler) Subscribe(c *gin.Context) {
	if h.subscriptions == nil {
		notConfigured(c)
		return
	}

	var req domain.SubscribeRequest
	// a malformed body is treated as a missing email
	_ = c.ShouldBindJSON(&req)

	email, err := h.subscriptions.Subscribe(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Successfully subscribed!",
			"email":   email,
		})
	case errors.Is(err, domain.ErrEmailRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
	case errors.Is(err, domain.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
	case errors.Is(err, domain.ErrAlreadySubscribed):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already subscribed"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save email"})
	}
}

// ListSubscribers returns every subscriber address
func (h *Handler) ListSubscribers(c *gin.Context) {
	if h.subscriptions == nil {
		notConfigured(c)
		return
	}

	emails, err := h.subscriptions.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read subscribers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribers": emails, "count": len(emails)})
}

// DownloadSubscribers serves the subscriber file as an attachment
func (h *Handler) DownloadSubscribers(c *gin.Context) {
	data, ok := h.exportSubscribers(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="subscribers.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ViewSubscribers serves the subscriber file inline as plain text
func (h *Handler) ViewSubscribers(c *gin.Context) {
	data, ok := h.exportSubscribers(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

func (h *Handler) exportSubscribers(c *gin.Context) ([]byte, bool) {
	if h.subscriptions == nil {
		notConfigured(c)
		return nil, false
	}

	data, err := h.subscriptions.Export(c.Request.Context())
	if errors.Is(err, domain.ErrSubscriberFileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "CSV file not found"})
		return nil, false
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read subscribers"})
		return nil, false
	}
	return data, true
}

// RecordEvent accepts an analytics event sent as JSON or as a text/plain beacon
func (h *Handler) RecordEvent(c *gin.Context) {
	if h.analytics == nil {
		notConfigured(c)
		return
	}

	name := eventName(c.Request.Body)
	h.logger.Debug("Analytics event received", logger.String("name", name))

	err := h.analytics.Record(c.Request.Context(), name, c.ClientIP())
	switch {
	case err == nil, errors.Is(err, domain.ErrDuplicateEvent):
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, domain.ErrMissingEventName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing event name"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
	}
}

// CTAStats returns the CTA counters
func (h *Handler) CTAStats(c *gin.Context) {
	if h.analytics == nil {
		notConfigured(c)
		return
	}
	c.JSON(http.StatusOK, h.analytics.Stats(c.Request.Context()))
}

// RecentEvents returns the latest analytics events
func (h *Handler) RecentEvents(c *gin.Context) {
	if h.analytics == nil {
		notConfigured(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": h.analytics.RecentEvents(c.Request.Context())})
}

// CTAPage renders the CTA stats card
func (h *Handler) CTAPage(c *gin.Context) {
	if h.analytics == nil {
		notConfigured(c)
		return
	}
	c.HTML(http.StatusOK, ctaTemplateName, h.analytics.Stats(c.Request.Context()))
}

// eventName extracts "name" from a JSON body. Bodies that are not a JSON
// object, or whose name is not a string, yield "".
func eventName(body io.Reader) string {
	if body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxAnalyticsBody))
	if err != nil {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	name, _ := payload["name"].(string)
	return name
}

func (h *Handler) writeLookupError(c *gin.Context, err error) {
	status, message := lookupErrorResponse(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": message})
}

// lookupErrorResponse maps domain errors to a status and caller-facing message.
// Order matters: wrapped pricing errors carry ErrPricingAPI as well.
func lookupErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusInternalServerError, "Keepa API key is not configured."
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "URL is required"
	case errors.Is(err, domain.ErrIdentifierNotFound):
		return http.StatusBadRequest, "Could not extract ASIN from the Amazon URL. Please check if the URL is valid."
	case errors.Is(err, domain.ErrRedirectResolution):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "No product data returned from Keepa. The product might not exist or the API key might be invalid."
	case errors.Is(err, domain.ErrOutOfStock):
		return http.StatusNotFound, domain.ErrOutOfStock.Error()
	case errors.Is(err, domain.ErrPricingAPI):
		return http.StatusBadGateway, "Keepa API error. Please try again later."
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handler) writeResolveError(c *gin.Context, result *domain.ResolveResult, err error) {
	var finalURL, asin string
	if result != nil {
		finalURL, asin = result.FinalURL, result.ASIN
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required", "success": false})
	case errors.Is(err, domain.ErrIdentifierNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not extract ASIN from the resolved URL", "success": false})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ASIN or product not found on Keepa.", "finalUrl": finalURL, "asin": asin})
	case errors.Is(err, domain.ErrPricingAPI):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not validate ASIN with Keepa at this time.", "finalUrl": finalURL, "asin": asin})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "success": false})
	}
}

func notConfigured(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
}
