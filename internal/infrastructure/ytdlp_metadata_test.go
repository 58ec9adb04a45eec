package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediagrab/media-relay/internal/domain"
)

const youtubeDump = `{
  "id": "abc123",
  "title": "Cool Video! #1",
  "thumbnail": "https://i.ytimg.com/vi/abc123/maxresdefault.jpg",
  "duration": 3725,
  "view_count": 1534201,
  "extractor_key": "Youtube",
  "webpage_url": "https://www.youtube.com/watch?v=abc123",
  "formats": [
    {"format_id": "sb0", "format_note": "storyboard", "ext": "mhtml", "vcodec": "none", "acodec": "none"},
    {"format_id": "140", "format_note": "medium", "ext": "m4a", "vcodec": "none", "acodec": "mp4a.40.2", "abr": 129.5, "filesize": 3500000},
    {"format_id": "18", "format_note": "360p", "ext": "mp4", "height": 360, "fps": 30, "vcodec": "avc1.42001E", "acodec": "mp4a.40.2", "filesize_approx": 15000000},
    {"format_id": "299", "format_note": "1080p60", "ext": "mp4", "height": 1080, "fps": 60, "vcodec": "avc1.64002a", "acodec": "none", "filesize": null}
  ]
}`

func TestParseMetadata_YouTube(t *testing.T) {
	meta, err := ParseMetadata([]byte(youtubeDump), "https://youtu.be/abc123")
	require.NoError(t, err)

	assert.Equal(t, "Cool Video! #1", meta.Title)
	assert.Equal(t, "https://i.ytimg.com/vi/abc123/maxresdefault.jpg", meta.Thumbnail)
	assert.Equal(t, "1:02:05", meta.Duration)
	assert.Equal(t, "YouTube", meta.Platform)
	assert.Equal(t, "1.5M", meta.Views)

	require.Len(t, meta.Formats, 5, "storyboard must be dropped")
	assert.Equal(t, BestVideoOption, meta.Formats[0])
	assert.Equal(t, BestAudioOption, meta.Formats[1])

	assert.Equal(t, domain.FormatOption{
		Quality:  "1080p60",
		Format:   "mp4 (avc1, video only)",
		Size:     "Unknown",
		FormatID: "299",
	}, meta.Formats[2])
	assert.Equal(t, domain.FormatOption{
		Quality:  "360p",
		Format:   "mp4 (avc1)",
		Size:     "~14.3 MB",
		FormatID: "18",
	}, meta.Formats[3])
	assert.Equal(t, domain.FormatOption{
		Quality:  "Audio only (130kbps)",
		Format:   "m4a (mp4a)",
		Size:     "3.3 MB",
		FormatID: "140",
	}, meta.Formats[4])
}

func TestParseMetadata_FirstDocumentOnly(t *testing.T) {
	raw := `{"id":"1","title":"first"}` + "\n" + `{"id":"2","title":"second"}`
	meta, err := ParseMetadata([]byte(raw), "https://www.tiktok.com/@u/video/1")
	require.NoError(t, err)
	assert.Equal(t, "first", meta.Title)
	assert.Equal(t, "TikTok", meta.Platform)
	assert.Empty(t, meta.Views)
	assert.Equal(t, "Unknown", meta.Duration)
	assert.Len(t, meta.Formats, 2)
}

func TestParseMetadata_Fallbacks(t *testing.T) {
	raw := `{
		"id": "987",
		"duration_string": "0:42",
		"extractor_key": "Vimeo",
		"thumbnails": [{"url": "https://t/small.jpg"}, {"url": "https://t/large.jpg"}]
	}`
	meta, err := ParseMetadata([]byte(raw), "https://vimeo.com/987")
	require.NoError(t, err)
	assert.Equal(t, "987", meta.Title)
	assert.Equal(t, "https://t/large.jpg", meta.Thumbnail)
	assert.Equal(t, "0:42", meta.Duration)
	assert.Equal(t, "Vimeo", meta.Platform)
}

func TestParseMetadata_PlatformFromWebpageURL(t *testing.T) {
	raw := `{"id":"1","title":"t","webpage_url":"https://www.instagram.com/reel/1/"}`
	meta, err := ParseMetadata([]byte(raw), "https://short.link/abc")
	require.NoError(t, err)
	assert.Equal(t, "Instagram", meta.Platform)
}

func TestParseMetadata_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "  \n "},
		{"not json", "ERROR: Unsupported URL"},
		{"wrong shape", `["a","b"]`},
		{"no title or id", `{"duration": 10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ParseMetadata([]byte(tt.raw), "https://youtu.be/x")
			assert.Error(t, err)
			assert.Nil(t, meta)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:05", formatDuration(5, ""))
	assert.Equal(t, "1:01", formatDuration(60.6, ""))
	assert.Equal(t, "1:00:00", formatDuration(3600, ""))
	assert.Equal(t, "Unknown", formatDuration(0, ""))
	assert.Equal(t, "3:33", formatDuration(1, "3:33"))
}

func TestFormatViews(t *testing.T) {
	n := func(v int64) *int64 { return &v }

	assert.Equal(t, "", formatViews(nil))
	assert.Equal(t, "0", formatViews(n(0)))
	assert.Equal(t, "999", formatViews(n(999)))
	assert.Equal(t, "1K", formatViews(n(1000)))
	assert.Equal(t, "12.3K", formatViews(n(12345)))
	assert.Equal(t, "2M", formatViews(n(2000000)))
	assert.Equal(t, "1.9M", formatViews(n(1999999)))
	assert.Equal(t, "3.1B", formatViews(n(3100000000)))
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.0 KB", humanBytes(1024))
	assert.Equal(t, "1.5 MB", humanBytes(1.5*1024*1024))
	assert.Equal(t, "2.0 GB", humanBytes(2*1024*1024*1024))
}

func TestBuildFormatOptions_Dedup(t *testing.T) {
	options := buildFormatOptions([]ytdlpFormat{
		{FormatID: "18", Ext: "mp4", Height: 360},
		{FormatID: "18", Ext: "mp4", Height: 360},
		{FormatID: "", Ext: "mp4"},
		{FormatID: "bestaudio/best"},
	})
	require.Len(t, options, 3)
	assert.Equal(t, "18", options[2].FormatID)
	assert.Equal(t, "mp4", options[2].Format)
}

func TestSyntheticOptionsPickOutputType(t *testing.T) {
	assert.False(t, domain.IsAudioFormat(BestVideoOption.FormatID, BestVideoOption.Quality))
	assert.True(t, domain.IsAudioFormat(BestAudioOption.FormatID, BestAudioOption.Quality))
}
