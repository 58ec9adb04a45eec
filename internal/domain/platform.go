package domain

import "strings"

// Platform represents the source site of a media URL
type Platform string

const (
	PlatformYouTube   Platform = "YouTube"
	PlatformInstagram Platform = "Instagram"
	PlatformFacebook  Platform = "Facebook"
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformTikTok    Platform = "TikTok"
	PlatformTwitter   Platform = "Twitter/X"
	PlatformUnknown   Platform = "Unknown"
)

// platformDomain maps a platform to the domain substrings that identify it
type platformDomain struct {
	platform Platform
	domains  []string
}

// platformTable is checked in order; the first match wins.
var platformTable = []platformDomain{
	{PlatformYouTube, []string{"youtube.com", "youtu.be"}},
	{PlatformInstagram, []string{"instagram.com"}},
	{PlatformFacebook, []string{"facebook.com", "fb.com"}},
	{PlatformLinkedIn, []string{"linkedin.com"}},
	{PlatformTikTok, []string{"tiktok.com"}},
	{PlatformTwitter, []string{"twitter.com", "x.com"}},
}

// DetectPlatform detects the platform from a URL using plain substring
// containment on the lower-cased URL. Unmatched URLs yield PlatformUnknown.
func DetectPlatform(url string) Platform {
	lower := strings.ToLower(url)
	for _, entry := range platformTable {
		for _, d := range entry.domains {
			if strings.Contains(lower, d) {
				return entry.platform
			}
		}
	}
	return PlatformUnknown
}

// IsSupported reports whether the platform is one of the recognized sites
func (p Platform) IsSupported() bool {
	for _, entry := range platformTable {
		if entry.platform == p {
			return true
		}
	}
	return false
}

// String returns the display label of the platform
func (p Platform) String() string {
	return string(p)
}

// SupportedPlatforms returns the recognized platforms in match priority order
func SupportedPlatforms() []Platform {
	platforms := make([]Platform, 0, len(platformTable))
	for _, entry := range platformTable {
		platforms = append(platforms, entry.platform)
	}
	return platforms
}

// SupportedDomains returns every recognized domain substring
func SupportedDomains() []string {
	var domains []string
	for _, entry := range platformTable {
		domains = append(domains, entry.domains...)
	}
	return domains
}

// MediaSource is a URL together with the platform inferred from it.
// It is derived on every validation and never stored.
type MediaSource struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
}

// NewMediaSource builds a MediaSource for the given URL
func NewMediaSource(url string) MediaSource {
	return MediaSource{URL: url, Platform: DetectPlatform(url)}
}
