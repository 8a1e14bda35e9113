package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(public), 0o600))
	if private != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "private.yaml"), []byte(private), 0o600))
	}
	return dir
}

func TestMustLoad(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("BLOGFRONT_API_BASE_URL", "")
	t.Setenv("BLOGFRONT_SESSION_SECRET", "")
	dir := writeConfig(t,
		"api_base_url: http://api:5000/api\nimage_base_url: http://api:5000\nsession_ttl: 2h\nlog:\n  level: debug\n  json: true\nuploads:\n  stage_ttl: 30m\n",
		"session_secret: 'a-long-enough-secret'\n",
	)

	cfg := MustLoad(dir)

	assert.Equal(t, "http://api:5000/api", cfg.Public.APIBaseURL)
	assert.Equal(t, 2*time.Hour, cfg.Public.SessionTTL)
	assert.Equal(t, "debug", cfg.Public.Log.Level)
	assert.True(t, cfg.Public.Log.JSON)
	assert.Equal(t, 30*time.Minute, cfg.Public.Uploads.StageTTL)
	assert.Equal(t, "a-long-enough-secret", cfg.SessionSecret())

	// defaults
	assert.Equal(t, ":8081", cfg.Public.ListenAddr)
	assert.Equal(t, int64(10<<20), cfg.Public.Uploads.MaxImageBytes)
	assert.Equal(t, 10.0, cfg.Public.RateLimit.AuthPerMinute)
}

func TestMustLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t,
		"api_base_url: http://api:5000/api\nimage_base_url: http://api:5000\n",
		"session_secret: 'a-long-enough-secret'\n",
	)
	t.Setenv("BLOGFRONT_API_BASE_URL", "http://other:9000/api")
	t.Setenv("PORT", "9999")

	cfg := MustLoad(dir)

	assert.Equal(t, "http://other:9000/api", cfg.Public.APIBaseURL)
	assert.Equal(t, ":9999", cfg.Public.ListenAddr)
}

func TestMustLoad_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		public  string
		private string
	}{
		{"missing api url", "image_base_url: http://api:5000\n", "session_secret: 'a-long-enough-secret'\n"},
		{"short secret", "api_base_url: http://a\nimage_base_url: http://b\n", "session_secret: 'short'\n"},
		{"bad log level", "api_base_url: http://a\nimage_base_url: http://b\nlog:\n  level: loud\n", "session_secret: 'a-long-enough-secret'\n"},
		{"missing private file", "api_base_url: http://a\nimage_base_url: http://b\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.public, tt.private)
			assert.Panics(t, func() { MustLoad(dir) })
		})
	}
}

func TestLoadPublic(t *testing.T) {
	dir := writeConfig(t, "api_base_url: http://api:5000/api\nimage_base_url: http://api:5000\n", "")

	public, err := LoadPublic(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://api:5000/api", public.APIBaseURL)
	assert.Equal(t, "info", public.Log.Level)

	_, err = LoadPublic(t.TempDir())
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	cfg, err := New(Public{APIBaseURL: "http://a", ImageBaseURL: "http://b"}, "a-long-enough-secret")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Public.Uploads.StageTTL)

	_, err = New(Public{APIBaseURL: "http://a"}, "a-long-enough-secret")
	assert.Error(t, err)
}
