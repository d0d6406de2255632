package tasks

import (
	"regexp"
	"strings"
)

// DefaultProvider is the playlist provider domain accepted when none is configured.
const DefaultProvider = "spotify.com"

// LinkValidator accepts links shaped like http(s)://open.<provider>/playlist/<alphanumeric id>.
//
// A trailing slash, query string or fragment may follow the id; further path segments may not.
type LinkValidator struct {
	provider string
	pattern  *regexp.Regexp
}

// NewLinkValidator builds a validator for provider (for example "spotify.com").
func NewLinkValidator(provider string) *LinkValidator {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = DefaultProvider
	}
	pattern := regexp.MustCompile(`^https?://open\.` + regexp.QuoteMeta(provider) + `/playlist/[A-Za-z0-9]+/?(?:[?#].*)?$`)
	return &LinkValidator{provider: provider, pattern: pattern}
}

// Provider returns the accepted provider domain.
func (v *LinkValidator) Provider() string {
	return v.provider
}

// Valid reports whether input is a playlist link. It never fails and has no side effects.
func (v *LinkValidator) Valid(input string) bool {
	return input != "" && v.pattern.MatchString(input)
}

var defaultValidator = NewLinkValidator(DefaultProvider)

// ValidLink reports whether input is a playlist link for the default provider.
func ValidLink(input string) bool {
	return defaultValidator.Valid(input)
}
