package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mediagrab/media-relay/internal/domain"
)

// processWaitDelay bounds how long Wait blocks on output pipes after the
// process was killed because its context ended.
const processWaitDelay = 5 * time.Second

// ToolError reports a failed tool invocation
type ToolError struct {
	Binary   string
	ExitCode int
	Stderr   string // last non-empty stderr line
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Binary)
	if e.ExitCode > 0 {
		msg = fmt.Sprintf("%s exited with code %d", e.Binary, e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	if e.Err != nil && e.ExitCode <= 0 {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// YTDLPTool implements domain.ExternalTool by running yt-dlp as a subprocess
type YTDLPTool struct {
	config  *domain.ExtractorConfig
	logsDir string
	logger  *zap.Logger
}

// NewYTDLPTool creates a new yt-dlp adapter. When logsDir is non-empty the
// raw output of every invocation is appended to extract-YYYYMMDD.log there.
func NewYTDLPTool(config *domain.ExtractorConfig, logsDir string, logger *zap.Logger) *YTDLPTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPTool{
		config:  config,
		logsDir: logsDir,
		logger:  logger,
	}
}

// Binary returns the configured executable
func (t *YTDLPTool) Binary() string {
	if t.config.Binary == "" {
		return "yt-dlp"
	}
	return t.config.Binary
}

// DumpMetadata runs yt-dlp in dump mode and returns its JSON output
func (t *YTDLPTool) DumpMetadata(ctx context.Context, url string) ([]byte, error) {
	var stdout bytes.Buffer
	if err := t.run(ctx, "metadata", t.metadataArgs(url), &stdout); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// FetchFile runs yt-dlp in fetch-and-save mode
func (t *YTDLPTool) FetchFile(ctx context.Context, req domain.FetchRequest) error {
	if err := os.MkdirAll(filepath.Dir(req.OutputTemplate), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return t.run(ctx, "fetch", t.fetchArgs(req), nil)
}

// Version returns the tool's reported version
func (t *YTDLPTool) Version(ctx context.Context) (string, error) {
	if _, err := exec.LookPath(t.Binary()); err != nil {
		return "", fmt.Errorf("%s not found: %w", t.Binary(), err)
	}
	out, err := exec.CommandContext(ctx, t.Binary(), "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", t.Binary(), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (t *YTDLPTool) metadataArgs(url string) []string {
	args := []string{"--dump-json", "--no-playlist"}
	args = append(args, t.commonArgs()...)
	return append(args, "--", url)
}

func (t *YTDLPTool) fetchArgs(req domain.FetchRequest) []string {
	args := []string{
		"-f", req.FormatID,
		"-o", req.OutputTemplate,
		"--no-playlist",
	}
	if req.AudioOnly {
		args = append(args, "--extract-audio", "--audio-format", "mp3")
	} else {
		args = append(args, "--merge-output-format", "mp4", "--remux-video", "mp4")
	}
	args = append(args, t.commonArgs()...)
	return append(args, "--", req.URL)
}

func (t *YTDLPTool) commonArgs() []string {
	var args []string
	if t.config.CookieFile != "" && fileExists(t.config.CookieFile) {
		args = append(args, "--cookies", t.config.CookieFile)
	}
	return append(args, t.config.ExtraArgs...)
}

// run executes the tool. stdout defaults to the command log when nil;
// stderr always goes to the command log and is kept for error reporting.
func (t *YTDLPTool) run(ctx context.Context, mode string, args []string, stdout io.Writer) error {
	commandLog, err := t.openLogFile()
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer commandLog.Close()

	cmdLine := CommandLine(t.Binary(), args...)
	writeLogHeader(commandLog, mode, cmdLine)
	t.logger.Debug("Running extraction tool", zap.String("mode", mode), zap.String("command", cmdLine))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Binary(), args...)
	cmd.WaitDelay = processWaitDelay
	if stdout != nil {
		cmd.Stdout = stdout
	} else {
		cmd.Stdout = commandLog
	}
	cmd.Stderr = io.MultiWriter(&stderr, commandLog)

	start := time.Now()
	if err := cmd.Run(); err != nil {
		toolErr := &ToolError{
			Binary:   t.Binary(),
			ExitCode: -1,
			Stderr:   lastLine(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			toolErr.Err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		writeLogFooter(commandLog, false, toolErr.Error())
		return toolErr
	}

	writeLogFooter(commandLog, true, fmt.Sprintf("%s in %s", mode, time.Since(start).Round(time.Millisecond)))
	return nil
}

// openLogFile opens today's extract log, or a discarding writer when no
// logs directory is configured
func (t *YTDLPTool) openLogFile() (io.WriteCloser, error) {
	if t.logsDir == "" {
		return nopWriteCloser{io.Discard}, nil
	}
	if err := os.MkdirAll(t.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	path := filepath.Join(t.logsDir, "extract-"+dateStr+".log")
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func writeLogHeader(w io.Writer, mode, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] %s ===\n$ %s\n", timestamp, mode, cmdLine)
}

func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n=== END ===\n", timestamp, status, message)
}

// lastLine returns the last non-empty line of s
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
