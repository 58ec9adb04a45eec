package domain

import (
	"net/url"
	"strings"
)

// ValidateURL checks that raw is a well-formed URL of a supported platform.
// The URL is returned unchanged on success.
func ValidateURL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", NewError(KindInvalidURL, "Invalid URL", nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", NewError(KindInvalidURL, "Invalid URL", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", NewError(KindInvalidURL, "Invalid URL", nil)
	}

	if DetectPlatform(raw) == PlatformUnknown {
		return "", NewError(KindUnsupportedPlatform, "Unsupported platform", nil)
	}

	return raw, nil
}

// RequireParams returns a MissingParameter error naming the first empty field.
// Fields are given as alternating name/value pairs.
func RequireParams(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return NewError(KindMissingParameter, pairs[i]+" is required", nil)
		}
	}
	return nil
}
