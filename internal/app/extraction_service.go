package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mediagrab/media-relay/internal/domain"
	"github.com/mediagrab/media-relay/internal/infrastructure"
)

const (
	msgAnalyzeFailed  = "Failed to analyze video."
	msgDownloadFailed = "Failed to process download."
)

// ToolProber is implemented by tools that can report their version
type ToolProber interface {
	Version(ctx context.Context) (string, error)
}

// ExtractionService invokes the external tool on behalf of the relay
type ExtractionService struct {
	tool       domain.ExternalTool
	config     *domain.ExtractorConfig
	scratchDir string
	logger     *zap.Logger
	slots      chan struct{} // nil when unbounded
}

// NewExtractionService creates a new extraction service. Downloads are
// written below scratchDir, one uniquely named directory per request.
func NewExtractionService(
	tool domain.ExternalTool,
	config *domain.ExtractorConfig,
	scratchDir string,
	logger *zap.Logger,
) *ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}

	var slots chan struct{}
	if config.MaxConcurrent > 0 {
		slots = make(chan struct{}, config.MaxConcurrent)
	}

	return &ExtractionService{
		tool:       tool,
		config:     config,
		scratchDir: scratchDir,
		logger:     logger,
		slots:      slots,
	}
}

// FetchMetadata runs the tool in dump mode and parses its output.
// Any failure is reported as ExtractionFailed.
func (s *ExtractionService) FetchMetadata(ctx context.Context, url string) (*domain.MediaMetadata, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, domain.NewError(domain.KindExtractionFailed, msgAnalyzeFailed, err)
	}
	defer release()

	ctx, cancel := withOptionalTimeout(ctx, s.config.MetadataTimeout)
	defer cancel()

	raw, err := s.tool.DumpMetadata(ctx, url)
	if err != nil {
		return nil, domain.NewError(domain.KindExtractionFailed, msgAnalyzeFailed, err)
	}

	meta, err := infrastructure.ParseMetadata(raw, url)
	if err != nil {
		return nil, domain.NewError(domain.KindExtractionFailed, msgAnalyzeFailed, err)
	}

	s.logger.Debug("Metadata fetched",
		zap.String("url", url),
		zap.String("title", meta.Title),
		zap.Int("formats", len(meta.Formats)))

	return meta, nil
}

// FetchMedia downloads url in the requested format into a fresh scratch
// directory. The caller owns the returned file and must call Release.
func (s *ExtractionService) FetchMedia(ctx context.Context, url, formatID, label, title string) (*MediaFile, error) {
	filename := domain.MediaFileName(title, formatID, label)
	audioOnly := domain.IsAudioFormat(formatID, label)

	dir := filepath.Join(s.scratchDir, uuid.New().String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, domain.NewError(domain.KindDownloadFailed, msgDownloadFailed,
			fmt.Errorf("failed to create scratch directory: %w", err))
	}

	file := &MediaFile{
		Path:        filepath.Join(dir, filename),
		Filename:    filename,
		ContentType: domain.ContentTypeForFile(filename),
		dir:         dir,
	}

	fail := func(err error) (*MediaFile, error) {
		file.Release()
		return nil, domain.NewError(domain.KindDownloadFailed, msgDownloadFailed, err)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return fail(err)
	}
	defer release()

	fetchCtx, cancel := withOptionalTimeout(ctx, s.config.DownloadTimeout)
	defer cancel()

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	err = s.tool.FetchFile(fetchCtx, domain.FetchRequest{
		URL:            url,
		FormatID:       formatID,
		OutputTemplate: filepath.Join(dir, base+".%(ext)s"),
		AudioOnly:      audioOnly,
	})
	if err != nil {
		return fail(err)
	}

	path, size, err := resolveOutput(dir, file.Path)
	if err != nil {
		return fail(err)
	}
	file.Path = path
	file.Size = size

	s.logger.Debug("Media fetched",
		zap.String("url", url),
		zap.String("format_id", formatID),
		zap.String("file", file.Path),
		zap.Int64("size", size))

	return file, nil
}

// ToolVersion reports the external tool's version when it can be probed
func (s *ExtractionService) ToolVersion(ctx context.Context) (string, error) {
	prober, ok := s.tool.(ToolProber)
	if !ok {
		return "unknown", nil
	}
	return prober.Version(ctx)
}

// acquire takes a subprocess slot when a concurrency cap is configured
func (s *ExtractionService) acquire(ctx context.Context) (func(), error) {
	if s.slots == nil {
		return func() {}, nil
	}
	select {
	case s.slots <- struct{}{}:
		return func() { <-s.slots }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for extraction slot: %w", ctx.Err())
	}
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// resolveOutput finds the file the tool produced. The expected path is
// preferred; otherwise the single finished file in dir is used, since the
// tool may choose a different extension than requested.
func resolveOutput(dir, expected string) (string, int64, error) {
	if info, err := os.Stat(expected); err == nil && info.Mode().IsRegular() {
		if info.Size() == 0 {
			return "", 0, errors.New("tool produced an empty file")
		}
		return expected, info.Size(), nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read scratch directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		return filepath.Join(dir, name), info.Size(), nil
	}
	return "", 0, errors.New("tool produced no output file")
}

// MediaFile is a downloaded file in scratch storage
type MediaFile struct {
	Path        string
	Filename    string // name presented to the caller
	ContentType string
	Size        int64
	dir         string
}

// Open opens the file for streaming
func (f *MediaFile) Open() (io.ReadSeekCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Release deletes the file and its scratch directory
func (f *MediaFile) Release() error {
	if f.dir == "" {
		return os.Remove(f.Path)
	}
	return os.RemoveAll(f.dir)
}
