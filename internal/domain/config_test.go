package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 3000, config.Gateway.Port)
	assert.Equal(t, "yt-dlp", config.Extractor.Binary)
	assert.Equal(t, 2*time.Minute, config.Extractor.MetadataTimeout)
	assert.Equal(t, 30*time.Minute, config.Extractor.DownloadTimeout)
	assert.Equal(t, 0, config.Extractor.MaxConcurrent)
	assert.Empty(t, config.Scratch.Dir)
	assert.Equal(t, "http://localhost:8080", config.Client.BackendURL)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "console", config.Logging.Format)
}
