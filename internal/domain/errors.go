package domain

import "errors"

var (
	// ErrConfiguration is returned when required configuration (the pricing API key) is missing
	ErrConfiguration = errors.New("pricing API key is not configured")
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
	// ErrIdentifierNotFound is returned when no product identifier can be extracted from a URL
	ErrIdentifierNotFound = errors.New("could not extract ASIN from the Amazon URL")
	// ErrRedirectResolution is returned when both redirect chains fail at the transport level
	ErrRedirectResolution = errors.New("could not resolve shortened URL")
	// ErrPricingAPI is returned when the pricing API request fails or returns a malformed body
	ErrPricingAPI = errors.New("pricing API request failed")
	// ErrPricingUnauthorized is returned for 401/402 responses (auth or quota problems)
	ErrPricingUnauthorized = errors.New("pricing API account issue")
	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrProductNotFound is returned when the pricing API knows no product for the identifier
	ErrProductNotFound = errors.New("product not found on pricing API")
	// ErrOutOfStock is returned when the pricing API has no current price for the product
	ErrOutOfStock = errors.New("product appears to be out of stock or not available for purchase")
	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrEmailRequired is returned when a subscription has no email
	ErrEmailRequired = errors.New("email is required")
	// ErrInvalidEmail is returned when a subscription email is malformed
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrAlreadySubscribed is returned when the email is already in the subscriber file
	ErrAlreadySubscribed = errors.New("email already subscribed")
	// ErrSubscriberFileNotFound is returned when the subscriber file does not exist
	ErrSubscriberFileNotFound = errors.New("CSV file not found")

	// ErrMissingEventName is returned when an analytics event has no name
	ErrMissingEventName = errors.New("missing event name")
	// ErrDuplicateEvent is returned when an event repeats inside the dedup window
	ErrDuplicateEvent = errors.New("duplicate event suppressed")
)
