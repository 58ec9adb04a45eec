package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantKind ErrorKind
	}{
		{"empty string", "", KindInvalidURL},
		{"whitespace", "   ", KindInvalidURL},
		{"not a url", "not a url", KindInvalidURL},
		{"missing scheme", "www.youtube.com/watch?v=abc", KindInvalidURL},
		{"missing host", "https://", KindInvalidURL},
		{"unsupported domain", "https://example.com", KindUnsupportedPlatform},
		{"youtube watch", "https://www.youtube.com/watch?v=abc123", ""},
		{"youtube short", "https://youtu.be/xyz", ""},
		{"x status", "https://x.com/user/status/1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateURL(tt.url)
			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.url, got)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Empty(t, got)
		})
	}
}

func TestValidateURL_Sentinels(t *testing.T) {
	_, err := ValidateURL("not a url")
	assert.True(t, errors.Is(err, ErrInvalidURL))
	assert.False(t, errors.Is(err, ErrUnsupportedPlatform))

	_, err = ValidateURL("https://example.com")
	assert.True(t, errors.Is(err, ErrUnsupportedPlatform))
}

func TestValidateURL_NoRewriting(t *testing.T) {
	raw := "https://YouTube.com/watch?v=AbC&t=10s"
	got, err := ValidateURL(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestRequireParams(t *testing.T) {
	assert.NoError(t, RequireParams("url", "a", "format", "b"))

	err := RequireParams("url", "a", "format", "", "title", "")
	require.Error(t, err)
	assert.Equal(t, KindMissingParameter, KindOf(err))
	assert.Equal(t, "format is required", err.Error())
}
