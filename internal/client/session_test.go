package client

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, relay *fakeRelay) *Session {
	t.Helper()
	s := NewSession(newTestClient(t, relay))
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }
	return s
}

func TestSession_AnalyzeThenDownload(t *testing.T) {
	relay := &fakeRelay{body: "media bytes", disposition: `attachment; filename="Cool_Video_1.mp4"`}
	s := newTestSession(t, relay)
	dir := t.TempDir()

	meta, err := s.Analyze(context.Background(), "https://youtu.be/xyz")
	require.NoError(t, err)
	require.NotEmpty(t, s.Formats())

	saved, err := s.Download(context.Background(), meta.Formats[0].FormatID, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Cool_Video_1.mp4"), saved.Path)
	assert.Equal(t, int64(len("media bytes")), saved.Size)
	data, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, "media bytes", string(data))

	_, err = os.Stat(saved.Path + ".part")
	assert.True(t, os.IsNotExist(err))

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, "Cool Video! #1", history[0].Title)
	assert.Equal(t, "YouTube", history[0].Platform)
	assert.Equal(t, "Best available", history[0].Format)

	assert.Equal(t, "https://youtu.be/xyz", relay.lastDownload.URL)
	assert.Equal(t, "Cool Video! #1", relay.lastDownload.Title)
	assert.Equal(t, "Best available", relay.lastDownload.Label)
}

func TestSession_DownloadRequiresAnalysis(t *testing.T) {
	s := newTestSession(t, &fakeRelay{})

	_, err := s.Download(context.Background(), "18", t.TempDir())
	assert.True(t, errors.Is(err, ErrNothingAnalyzed))
}

func TestSession_DownloadUnknownFormat(t *testing.T) {
	s := newTestSession(t, &fakeRelay{})
	_, err := s.Analyze(context.Background(), "https://youtu.be/xyz")
	require.NoError(t, err)

	_, err = s.Download(context.Background(), "does-not-exist", t.TempDir())
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestSession_FailedDownloadNotRecorded(t *testing.T) {
	s := newTestSession(t, &fakeRelay{downloadCode: http.StatusInternalServerError})
	_, err := s.Analyze(context.Background(), "https://youtu.be/xyz")
	require.NoError(t, err)

	_, err = s.Download(context.Background(), "bestaudio/best", t.TempDir())
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Empty(t, s.History())
}

func TestSession_EmptyBodyNotRecorded(t *testing.T) {
	s := newTestSession(t, &fakeRelay{body: ""})
	_, err := s.Analyze(context.Background(), "https://youtu.be/xyz")
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = s.Download(context.Background(), "bestaudio/best", dir)
	assert.True(t, errors.Is(err, ErrEmptyDownload))
	assert.Empty(t, s.History())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file must be removed")
}

func TestSession_FailedAnalyzeForgetsPrevious(t *testing.T) {
	relay := &fakeRelay{}
	s := newTestSession(t, relay)
	_, err := s.Analyze(context.Background(), "https://youtu.be/xyz")
	require.NoError(t, err)
	require.NotNil(t, s.Metadata())

	relay.analyzeCode = http.StatusInternalServerError
	_, err = s.Analyze(context.Background(), "https://youtu.be/abc")
	require.Error(t, err)
	assert.Nil(t, s.Metadata())
	assert.Nil(t, s.Formats())
}

func TestSession_ResetKeepsHistory(t *testing.T) {
	s := newTestSession(t, &fakeRelay{body: "x"})
	_, err := s.Analyze(context.Background(), "https://youtu.be/xyz")
	require.NoError(t, err)
	_, err = s.Download(context.Background(), "bestaudio/best", t.TempDir())
	require.NoError(t, err)

	s.Reset()
	assert.Nil(t, s.Metadata())
	assert.Len(t, s.History(), 1)
}
