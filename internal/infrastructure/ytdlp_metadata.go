package infrastructure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mediagrab/media-relay/internal/domain"
)

// Synthetic options offered ahead of the tool's own formats. Their
// identifiers are yt-dlp format selectors and are passed through verbatim.
var (
	BestVideoOption = domain.FormatOption{
		Quality:  "Best available",
		Format:   "mp4",
		Size:     "Varies",
		FormatID: "bv*+ba/b",
	}
	BestAudioOption = domain.FormatOption{
		Quality:  "Audio only",
		Format:   "mp3",
		Size:     "Varies",
		FormatID: "bestaudio/best",
	}
)

// ytdlpInfo is the subset of yt-dlp's --dump-json output the relay reads
type ytdlpInfo struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Thumbnail      string  `json:"thumbnail"`
	Duration       float64 `json:"duration"`
	DurationString string  `json:"duration_string"`
	ViewCount      *int64  `json:"view_count"`
	ExtractorKey   string  `json:"extractor_key"`
	WebpageURL     string  `json:"webpage_url"`
	Thumbnails     []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
	Formats []ytdlpFormat `json:"formats"`
}

type ytdlpFormat struct {
	FormatID       string  `json:"format_id"`
	FormatNote     string  `json:"format_note"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	ABR            float64 `json:"abr"`
	Filesize       float64 `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
}

// ParseMetadata maps yt-dlp's JSON output into MediaMetadata. sourceURL is
// the URL the caller asked about and drives platform detection.
func ParseMetadata(raw []byte, sourceURL string) (*domain.MediaMetadata, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty metadata output")
	}

	// yt-dlp prints one JSON document per line; only the first is used
	var info ytdlpInfo
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if info.Title == "" && info.ID == "" {
		return nil, errors.New("metadata has neither title nor id")
	}

	title := info.Title
	if title == "" {
		title = info.ID
	}

	return &domain.MediaMetadata{
		Title:     title,
		Thumbnail: info.thumbnailURL(),
		Duration:  formatDuration(info.Duration, info.DurationString),
		Platform:  info.platform(sourceURL),
		Views:     formatViews(info.ViewCount),
		Formats:   buildFormatOptions(info.Formats),
	}, nil
}

func (i *ytdlpInfo) thumbnailURL() string {
	if i.Thumbnail != "" {
		return i.Thumbnail
	}
	// thumbnails are sorted worst to best
	for j := len(i.Thumbnails) - 1; j >= 0; j-- {
		if i.Thumbnails[j].URL != "" {
			return i.Thumbnails[j].URL
		}
	}
	return ""
}

func (i *ytdlpInfo) platform(sourceURL string) string {
	if p := domain.DetectPlatform(sourceURL); p != domain.PlatformUnknown {
		return p.String()
	}
	if p := domain.DetectPlatform(i.WebpageURL); p != domain.PlatformUnknown {
		return p.String()
	}
	if i.ExtractorKey != "" {
		return i.ExtractorKey
	}
	return domain.PlatformUnknown.String()
}

// buildFormatOptions returns the synthetic options followed by the tool's
// formats, best first. Storyboards and duplicate identifiers are dropped.
func buildFormatOptions(formats []ytdlpFormat) []domain.FormatOption {
	options := []domain.FormatOption{BestVideoOption, BestAudioOption}
	seen := map[string]bool{
		BestVideoOption.FormatID: true,
		BestAudioOption.FormatID: true,
	}

	for i := len(formats) - 1; i >= 0; i-- {
		f := formats[i]
		if f.FormatID == "" || seen[f.FormatID] || f.isStoryboard() {
			continue
		}
		seen[f.FormatID] = true
		options = append(options, domain.FormatOption{
			Quality:  f.qualityLabel(),
			Format:   f.containerLabel(),
			Size:     f.sizeLabel(),
			FormatID: f.FormatID,
		})
	}
	return options
}

func (f ytdlpFormat) isStoryboard() bool {
	if f.Ext == "mhtml" || strings.Contains(strings.ToLower(f.FormatNote), "storyboard") {
		return true
	}
	return f.VCodec == "none" && f.ACodec == "none"
}

func (f ytdlpFormat) audioOnly() bool {
	return f.VCodec == "none" && f.ACodec != "none"
}

func (f ytdlpFormat) videoOnly() bool {
	return f.ACodec == "none" && f.VCodec != "none"
}

func (f ytdlpFormat) qualityLabel() string {
	switch {
	case f.audioOnly():
		if f.ABR > 0 {
			return fmt.Sprintf("Audio only (%dkbps)", int(math.Round(f.ABR)))
		}
		return "Audio only"
	case f.Height > 0:
		label := fmt.Sprintf("%dp", f.Height)
		if f.FPS > 30 {
			label += strconv.Itoa(int(math.Round(f.FPS)))
		}
		return label
	case f.FormatNote != "":
		return f.FormatNote
	default:
		return f.FormatID
	}
}

func (f ytdlpFormat) containerLabel() string {
	ext := f.Ext
	if ext == "" {
		ext = "unknown"
	}

	codec := shortCodec(f.VCodec)
	if f.audioOnly() {
		codec = shortCodec(f.ACodec)
	}

	var details []string
	if codec != "" {
		details = append(details, codec)
	}
	if f.videoOnly() {
		details = append(details, "video only")
	}
	if len(details) == 0 {
		return ext
	}
	return fmt.Sprintf("%s (%s)", ext, strings.Join(details, ", "))
}

func (f ytdlpFormat) sizeLabel() string {
	switch {
	case f.Filesize > 0:
		return humanBytes(f.Filesize)
	case f.FilesizeApprox > 0:
		return "~" + humanBytes(f.FilesizeApprox)
	default:
		return "Unknown"
	}
}

// shortCodec trims profile details, "avc1.640028" -> "avc1"
func shortCodec(codec string) string {
	if codec == "" || codec == "none" {
		return ""
	}
	if i := strings.Index(codec, "."); i > 0 {
		return codec[:i]
	}
	return codec
}

func humanBytes(n float64) string {
	const unit = 1024.0
	if n < unit {
		return fmt.Sprintf("%d B", int64(n))
	}
	units := []string{"KB", "MB", "GB", "TB"}
	value := n / unit
	i := 0
	for value >= unit && i < len(units)-1 {
		value /= unit
		i++
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}

func formatDuration(seconds float64, display string) string {
	if display != "" {
		return display
	}
	if seconds <= 0 {
		return "Unknown"
	}
	total := int(math.Round(seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatViews(count *int64) string {
	if count == nil {
		return ""
	}
	n := float64(*count)
	switch {
	case n >= 1e9:
		return compactNumber(n/1e9) + "B"
	case n >= 1e6:
		return compactNumber(n/1e6) + "M"
	case n >= 1e3:
		return compactNumber(n/1e3) + "K"
	default:
		return strconv.FormatInt(*count, 10)
	}
}

func compactNumber(v float64) string {
	s := strconv.FormatFloat(math.Floor(v*10)/10, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}
