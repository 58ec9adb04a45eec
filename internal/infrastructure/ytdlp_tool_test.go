package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediagrab/media-relay/internal/domain"
)

// fakeYTDLP mimics the three yt-dlp modes the adapter uses and records its
// arguments, one per line, into $FAKE_YTDLP_ARGS.
const fakeYTDLP = `#!/bin/sh
printf '%s\n' "$@" > "$FAKE_YTDLP_ARGS"
case "$1" in
  --version)
    echo "2024.08.06"
    ;;
  --dump-json)
    echo "WARNING: fake extractor" >&2
    echo '{"id":"xyz","title":"Fake Video","duration":61,"formats":[{"format_id":"18","ext":"mp4","height":360,"vcodec":"avc1","acodec":"mp4a"}]}'
    ;;
  -f)
    out=$(echo "$4" | sed 's/%(ext)s/mp4/')
    printf 'fake media bytes' > "$out"
    ;;
esac
`

const failingYTDLP = `#!/bin/sh
echo "[youtube] xyz: Downloading webpage" >&2
echo "ERROR: [youtube] xyz: Video unavailable" >&2
exit 1
`

const hangingYTDLP = `#!/bin/sh
exec sleep 10
`

func writeFakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp is a shell script")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	t.Setenv("FAKE_YTDLP_ARGS", filepath.Join(t.TempDir(), "args.txt"))
	return path
}

func recordedArgs(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(os.Getenv("FAKE_YTDLP_ARGS"))
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestYTDLPTool_MetadataArgs(t *testing.T) {
	cookieFile := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(cookieFile, []byte("# Netscape HTTP Cookie File\n"), 0644))

	tool := NewYTDLPTool(&domain.ExtractorConfig{
		Binary:     "yt-dlp",
		CookieFile: cookieFile,
		ExtraArgs:  []string{"--force-ipv4"},
	}, "", nil)

	args := tool.metadataArgs("https://youtu.be/xyz")
	assert.Equal(t, []string{
		"--dump-json", "--no-playlist",
		"--cookies", cookieFile,
		"--force-ipv4",
		"--", "https://youtu.be/xyz",
	}, args)
}

func TestYTDLPTool_MissingCookieFileIgnored(t *testing.T) {
	tool := NewYTDLPTool(&domain.ExtractorConfig{CookieFile: "/nonexistent/cookies.txt"}, "", nil)
	assert.NotContains(t, tool.metadataArgs("https://youtu.be/xyz"), "--cookies")
	assert.Equal(t, "yt-dlp", tool.Binary())
}

func TestYTDLPTool_FetchArgs(t *testing.T) {
	tool := NewYTDLPTool(&domain.ExtractorConfig{Binary: "yt-dlp"}, "", nil)

	video := tool.fetchArgs(domain.FetchRequest{
		URL:            "https://youtu.be/xyz",
		FormatID:       "137+140",
		OutputTemplate: "/tmp/scratch/Cool_Video.%(ext)s",
	})
	assert.Equal(t, []string{
		"-f", "137+140",
		"-o", "/tmp/scratch/Cool_Video.%(ext)s",
		"--no-playlist",
		"--merge-output-format", "mp4", "--remux-video", "mp4",
		"--", "https://youtu.be/xyz",
	}, video)

	audio := tool.fetchArgs(domain.FetchRequest{
		URL:            "https://youtu.be/xyz",
		FormatID:       "bestaudio/best",
		OutputTemplate: "/tmp/scratch/Song.%(ext)s",
		AudioOnly:      true,
	})
	assert.Contains(t, audio, "--extract-audio")
	assert.Contains(t, audio, "mp3")
	assert.NotContains(t, audio, "--merge-output-format")
	assert.Equal(t, "https://youtu.be/xyz", audio[len(audio)-1])
}

func TestYTDLPTool_DumpMetadata(t *testing.T) {
	bin := writeFakeTool(t, fakeYTDLP)
	logsDir := t.TempDir()
	tool := NewYTDLPTool(&domain.ExtractorConfig{Binary: bin}, logsDir, nil)

	out, err := tool.DumpMetadata(context.Background(), "https://youtu.be/xyz")
	require.NoError(t, err)

	meta, err := ParseMetadata(out, "https://youtu.be/xyz")
	require.NoError(t, err)
	assert.Equal(t, "Fake Video", meta.Title)
	assert.Equal(t, "1:01", meta.Duration)

	assert.Equal(t, "https://youtu.be/xyz", recordedArgs(t)[len(recordedArgs(t))-1])

	logPath := filepath.Join(logsDir, "extract-"+time.Now().Format("20060102")+".log")
	logData, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "--dump-json")
	assert.Contains(t, string(logData), "WARNING: fake extractor")
	assert.Contains(t, string(logData), "SUCCESS")
	assert.NotContains(t, string(logData), "Fake Video", "stdout is returned, not logged")
}

func TestYTDLPTool_FetchFile(t *testing.T) {
	bin := writeFakeTool(t, fakeYTDLP)
	tool := NewYTDLPTool(&domain.ExtractorConfig{Binary: bin}, "", nil)

	outDir := filepath.Join(t.TempDir(), "req-1")
	err := tool.FetchFile(context.Background(), domain.FetchRequest{
		URL:            "https://youtu.be/xyz",
		FormatID:       "18",
		OutputTemplate: filepath.Join(outDir, "Fake_Video.%(ext)s"),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "Fake_Video.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "fake media bytes", string(data))

	args := recordedArgs(t)
	assert.Equal(t, []string{"-f", "18"}, args[:2])
}

func TestYTDLPTool_NonZeroExit(t *testing.T) {
	bin := writeFakeTool(t, failingYTDLP)
	logsDir := t.TempDir()
	tool := NewYTDLPTool(&domain.ExtractorConfig{Binary: bin}, logsDir, nil)

	_, err := tool.DumpMetadata(context.Background(), "https://youtu.be/xyz")
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, 1, toolErr.ExitCode)
	assert.Equal(t, "ERROR: [youtube] xyz: Video unavailable", toolErr.Stderr)
	assert.Contains(t, err.Error(), "exited with code 1")

	logPath := filepath.Join(logsDir, "extract-"+time.Now().Format("20060102")+".log")
	logData, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "FAILED")
}

func TestYTDLPTool_ContextTimeout(t *testing.T) {
	bin := writeFakeTool(t, hangingYTDLP)
	tool := NewYTDLPTool(&domain.ExtractorConfig{Binary: bin}, "", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tool.DumpMetadata(ctx, "https://youtu.be/xyz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestYTDLPTool_Version(t *testing.T) {
	bin := writeFakeTool(t, fakeYTDLP)
	tool := NewYTDLPTool(&domain.ExtractorConfig{Binary: bin}, "", nil)

	version, err := tool.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024.08.06", version)

	missing := NewYTDLPTool(&domain.ExtractorConfig{Binary: "/nonexistent/yt-dlp"}, "", nil)
	_, err = missing.Version(context.Background())
	assert.Error(t, err)
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "b", lastLine("a\nb\n\n"))
	assert.Equal(t, "", lastLine(""))
	assert.Equal(t, "only", lastLine("  only  "))
}
