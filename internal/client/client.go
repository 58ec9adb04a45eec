package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mediagrab/media-relay/internal/domain"
)

// APIError is a non-2xx answer from the relay
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a relay over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the relay at baseURL. A zero timeout means none,
// downloads of long videos can take many minutes.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// BaseURL returns the relay address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Download is a successful download response. The caller must close Body.
type Download struct {
	Body          io.ReadCloser
	Filename      string
	ContentType   string
	ContentLength int64
	StatusCode    int
	Disposition   string
}

// Analyze asks the relay for the metadata of url
func (c *Client) Analyze(ctx context.Context, url string) (*domain.MediaMetadata, error) {
	if err := domain.RequireParams("URL", url); err != nil {
		return nil, err
	}
	if _, err := domain.ValidateURL(url); err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "/api/analyze", domain.AnalyzeRequest{URL: url})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readAPIError(resp)
	}

	var result domain.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode analyze response: %w", err)
	}
	if result.VideoInfo == nil {
		return nil, fmt.Errorf("analyze response has no videoInfo")
	}
	return result.VideoInfo, nil
}

// Download asks the relay to fetch the media. On success the body is
// returned unread so it can be streamed.
func (c *Client) Download(ctx context.Context, req domain.DownloadRequest) (*Download, error) {
	if err := domain.RequireParams("URL", req.URL, "Format", req.Format, "Title", req.Title); err != nil {
		return nil, err
	}
	if _, err := domain.ValidateURL(req.URL); err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "/api/download", req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}

	disposition := resp.Header.Get("Content-Disposition")
	filename := FilenameFromDisposition(disposition)
	if filename == "" {
		filename = domain.MediaFileName(req.Title, req.Format, req.Label)
	}

	return &Download{
		Body:          resp.Body,
		Filename:      filename,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		StatusCode:    resp.StatusCode,
		Disposition:   disposition,
	}, nil
}

// Health reports whether the relay answers its health check
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}

	c.logger.Debug("Relay responded",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	return resp, nil
}

// readAPIError builds an APIError from a {"error": "..."} body, falling
// back to the status text when the body is not JSON
func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body domain.ErrorResponse
	message := http.StatusText(resp.StatusCode)
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		message = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

// FilenameFromDisposition extracts the filename parameter of a
// Content-Disposition header, or "" when there is none
func FilenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	// never let a header choose a directory
	name = name[strings.LastIndexAny(name, `/\`)+1:]
	if name == "." || name == ".." {
		return ""
	}
	return name
}
