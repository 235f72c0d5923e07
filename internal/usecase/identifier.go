package usecase

import (
	"regexp"
	"strings"
)

// identifierRule is one pattern in the ordered extraction list
type identifierRule struct {
	name    string
	pattern *regexp.Regexp
}

// identifierRules are evaluated in order; the first match wins even when a
// later rule would match a different code elsewhere in the URL.
var identifierRules = []identifierRule{
	{"dp", regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`)},
	{"gp-product", regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`)},
	{"product", regexp.MustCompile(`(?i)/product/([A-Z0-9]{10})`)},
	{"asin-query", regexp.MustCompile(`(?i)[?&]asin=([A-Z0-9]{10})`)},
	{"mobile", regexp.MustCompile(`(?i)/gp/aw/d/([A-Z0-9]{10})`)},
	{"short-d", regexp.MustCompile(`(?i)/d/([A-Z0-9]{10})`)},
	{"trailing", regexp.MustCompile(`(?i)/([A-Z0-9]{10})(?:/|\?|$)`)},
}

var directIdentifierRegex = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)

// shortLinkSignatures mark URLs that must be resolved before extraction
var shortLinkSignatures = []string{
	"amzn.to",
	"a.co/",
	"amazon.com/gp/r",
	"amazon.com/gp/redirect",
}

// ExtractIdentifier returns the ASIN captured by the highest-priority matching
// rule, preserving the case found in the URL.
func ExtractIdentifier(rawURL string) (string, bool) {
	for _, rule := range identifierRules {
		if m := rule.pattern.FindStringSubmatch(rawURL); len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// IsDirectIdentifier reports whether the trimmed input is itself an ASIN.
func IsDirectIdentifier(input string) bool {
	return directIdentifierRegex.MatchString(strings.TrimSpace(input))
}

// NeedsResolution reports whether the URL looks like a shortened or redirect link.
func NeedsResolution(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, sig := range shortLinkSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
