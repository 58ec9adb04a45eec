package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mediagrab/media-relay/internal/domain"
)

var (
	ErrNothingAnalyzed = errors.New("no video has been analyzed")
	ErrUnknownFormat   = errors.New("format is not offered for this video")
	ErrEmptyDownload   = errors.New("relay returned an empty file")
)

// SavedFile describes a download written to disk
type SavedFile struct {
	Path   string
	Size   int64
	Record DownloadRecord
}

// Session holds the state of one analyze-then-download flow plus the list of
// recent downloads
type Session struct {
	client  *Client
	history *History
	now     func() time.Time

	mu   sync.Mutex
	url  string
	meta *domain.MediaMetadata
}

func NewSession(client *Client) *Session {
	return &Session{
		client:  client,
		history: NewHistory(),
		now:     time.Now,
	}
}

// Analyze fetches metadata for url and makes it the current video. The
// previous video is forgotten even when analysis fails.
func (s *Session) Analyze(ctx context.Context, url string) (*domain.MediaMetadata, error) {
	s.mu.Lock()
	s.url = ""
	s.meta = nil
	s.mu.Unlock()

	meta, err := s.client.Analyze(ctx, url)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.url = url
	s.meta = meta
	s.mu.Unlock()
	return meta, nil
}

// Metadata returns the current video, or nil
func (s *Session) Metadata() *domain.MediaMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Formats returns the options of the current video
func (s *Session) Formats() []domain.FormatOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta == nil {
		return nil
	}
	return s.meta.Formats
}

// Download fetches the current video in formatID and saves it to dir under
// the name the relay chose. Only a complete, non-empty file is recorded in
// the history.
func (s *Session) Download(ctx context.Context, formatID, dir string) (*SavedFile, error) {
	s.mu.Lock()
	url, meta := s.url, s.meta
	s.mu.Unlock()

	if meta == nil {
		return nil, ErrNothingAnalyzed
	}
	option, ok := meta.FindFormat(formatID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, formatID)
	}

	dl, err := s.client.Download(ctx, domain.DownloadRequest{
		URL:    url,
		Format: option.FormatID,
		Title:  meta.Title,
		Label:  option.Quality,
	})
	if err != nil {
		return nil, err
	}
	defer dl.Body.Close()

	path, size, err := SaveFile(dl.Body, dir, dl.Filename)
	if err != nil {
		return nil, err
	}

	record := NewDownloadRecord(meta.Title, meta.Platform, option.Quality, s.now())
	s.history.Add(record)

	return &SavedFile{Path: path, Size: size, Record: record}, nil
}

// History returns recent downloads, newest first
func (s *Session) History() []DownloadRecord {
	return s.history.List()
}

// Reset forgets the current video. History is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = ""
	s.meta = nil
}

// SaveFile streams r into dir/name through a .part file. An empty stream
// is an error and leaves nothing behind.
func SaveFile(r io.Reader, dir, name string) (string, int64, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	partPath := path + ".part"

	file, err := os.Create(partPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(file, r)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil && size == 0 {
		err = ErrEmptyDownload
	}
	if err != nil {
		os.Remove(partPath)
		return "", 0, err
	}

	if err := os.Rename(partPath, path); err != nil {
		os.Remove(partPath)
		return "", 0, fmt.Errorf("failed to finalize file: %w", err)
	}
	return path, size, nil
}
