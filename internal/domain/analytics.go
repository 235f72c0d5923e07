package domain

// Tracked CTA event names
const (
	EventCTAiOS     = "cta_click_ios_a2hs"
	EventCTAAndroid = "cta_click_android_pwa"
	EventCTADesktop = "cta_click_desktop_bookmark"
)

// AnalyticsEvent is a single recorded UI event
type AnalyticsEvent struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	TS   int64  `json:"ts"` // unix millis
}

// AnalyticsState is the persisted analytics document
type AnalyticsState struct {
	CTAiOS     int64            `json:"cta_click_ios_a2hs"`
	CTAAndroid int64            `json:"cta_click_android_pwa"`
	CTADesktop int64            `json:"cta_click_desktop_bookmark"`
	Events     []AnalyticsEvent `json:"events"`
}

// CTAStats summarises the CTA counters
type CTAStats struct {
	IOS     int64 `json:"ios"`
	Android int64 `json:"android"`
	Desktop int64 `json:"desktop"`
	Total   int64 `json:"total"`
}

// SubscribeRequest represents an email signup request
type SubscribeRequest struct {
	Email string `json:"email"`
}
