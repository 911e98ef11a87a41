package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Len(t, cfg.Archive.IndexURLs, 5)
	assert.Contains(t, cfg.Archive.IndexURLs[0], "ohhla.com")
	assert.Equal(t, "data/ohla/metadata/target_artists.json", cfg.Checkpoint.Path)
	assert.Equal(t, "data/ohla", cfg.Storage.DataRoot)
	assert.Equal(t, 20, cfg.Fetch.TimeoutSeconds)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 3, cfg.Crawl.SaveAttempts)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadWithFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	configYAML := `
archive:
  index_urls:
    - http://localhost:9999/all.html
checkpoint:
  path: /tmp/checkpoint.json
storage:
  data_root: /tmp/data
fetch:
  user_agent: test-agent
  timeout_seconds: 5
crawl:
  save_attempts: 7
transcriber:
  dictionary_path: /tmp/cmudict.dict
server:
  port: 9191
logging:
  development: false
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"http://localhost:9999/all.html"}, cfg.Archive.IndexURLs)
	assert.Equal(t, "/tmp/checkpoint.json", cfg.Checkpoint.Path)
	assert.Equal(t, "/tmp/data", cfg.Storage.DataRoot)
	assert.Equal(t, "test-agent", cfg.Fetch.UserAgent)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 7, cfg.Crawl.SaveAttempts)
	assert.Equal(t, "/tmp/cmudict.dict", cfg.Transcriber.DictionaryPath)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty index urls", func(c *Config) { c.Archive.IndexURLs = nil }},
		{"blank checkpoint path", func(c *Config) { c.Checkpoint.Path = " " }},
		{"blank data root", func(c *Config) { c.Storage.DataRoot = "" }},
		{"zero timeout", func(c *Config) { c.Fetch.TimeoutSeconds = 0 }},
		{"zero save attempts", func(c *Config) { c.Crawl.SaveAttempts = 0 }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
