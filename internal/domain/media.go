package domain

import (
	"regexp"
	"strings"
)

// MediaMetadata describes a media item as reported by the extraction tool
type MediaMetadata struct {
	Title     string         `json:"title"`
	Thumbnail string         `json:"thumbnail"`
	Duration  string         `json:"duration"`
	Platform  string         `json:"platform"`
	Views     string         `json:"views,omitempty"`
	Formats   []FormatOption `json:"formats"`
}

// FormatOption is one selectable quality/format. FormatID is opaque and
// must be passed back to the download route unchanged.
type FormatOption struct {
	Quality  string `json:"quality"`
	Format   string `json:"format"`
	Size     string `json:"size"`
	FormatID string `json:"format_id"`
}

// FindFormat returns the option with the given identifier
func (m *MediaMetadata) FindFormat(formatID string) (FormatOption, bool) {
	for _, f := range m.Formats {
		if f.FormatID == formatID {
			return f, true
		}
	}
	return FormatOption{}, false
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// AnalyzeResponse is the success body of POST /api/analyze
type AnalyzeResponse struct {
	VideoInfo *MediaMetadata `json:"videoInfo"`
}

// DownloadRequest is the body of POST /api/download
type DownloadRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
	Title  string `json:"title"`
	Label  string `json:"label,omitempty"` // optional quality label of the chosen format
}

// ErrorResponse is the failure body of every API route
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	ExtMP3 = ".mp3"
	ExtMP4 = ".mp4"

	// fallbackBaseName is used when a title sanitizes to nothing
	fallbackBaseName = "video"
)

var (
	unsafeTitleChars = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	titleWhitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeTitle strips everything except ASCII letters, digits and
// whitespace, then collapses whitespace runs into underscores.
func SanitizeTitle(title string) string {
	stripped := unsafeTitleChars.ReplaceAllString(title, "")
	return titleWhitespace.ReplaceAllString(stripped, "_")
}

// IsAudioFormat reports whether the format identifier or label asks for audio only
func IsAudioFormat(formatID, label string) bool {
	for _, s := range []string{formatID, label} {
		lower := strings.ToLower(s)
		if strings.Contains(lower, "audio") || strings.Contains(lower, "mp3") {
			return true
		}
	}
	return false
}

// MediaExtension returns the output extension for the requested format
func MediaExtension(formatID, label string) string {
	if IsAudioFormat(formatID, label) {
		return ExtMP3
	}
	return ExtMP4
}

// MediaBaseName returns the filesystem-safe base name for a title
func MediaBaseName(title string) string {
	base := SanitizeTitle(title)
	if strings.Trim(base, "_") == "" {
		return fallbackBaseName
	}
	return base
}

// MediaFileName derives the download filename from a title and format
func MediaFileName(title, formatID, label string) string {
	return MediaBaseName(title) + MediaExtension(formatID, label)
}

// ContentTypeForFile returns the MIME type used when streaming a media file
func ContentTypeForFile(name string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ExtMP3):
		return "audio/mpeg"
	case strings.HasSuffix(strings.ToLower(name), ExtMP4):
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
