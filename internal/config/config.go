// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Checkpoint  CheckpointConfig  `mapstructure:"checkpoint"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Crawl       CrawlConfig       `mapstructure:"crawl"`
	Transcriber TranscriberConfig `mapstructure:"transcriber"`
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ArchiveConfig identifies the source site.
type ArchiveConfig struct {
	// IndexURLs are the alphabetical artist index pages used to seed
	// an empty checkpoint.
	IndexURLs []string `mapstructure:"index_urls"`
}

// CheckpointConfig locates the checkpoint file.
type CheckpointConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig locates the scraped-artifact tree.
type StorageConfig struct {
	DataRoot string `mapstructure:"data_root"`
}

// FetchConfig configures the fetch adapter.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CrawlConfig governs driver behavior.
type CrawlConfig struct {
	SaveAttempts int `mapstructure:"save_attempts"`
}

// TranscriberConfig configures the phonetic transcription stage.
type TranscriberConfig struct {
	DictionaryPath string `mapstructure:"dictionary_path"`
}

// ServerConfig controls the status/metrics HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LYRICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("archive.index_urls", []string{
		"http://ohhla.com/all.html",
		"http://ohhla.com/all_two.html",
		"http://ohhla.com/all_three.html",
		"http://ohhla.com/all_four.html",
		"http://ohhla.com/all_five.html",
	})
	v.SetDefault("checkpoint.path", "data/ohla/metadata/target_artists.json")
	v.SetDefault("storage.data_root", "data/ohla")
	v.SetDefault("fetch.user_agent", "lyricscrawler/0.1")
	v.SetDefault("fetch.timeout_seconds", 20)
	v.SetDefault("crawl.save_attempts", 3)
	v.SetDefault("transcriber.dictionary_path", "data/cmudict.dict")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Archive.IndexURLs) == 0 {
		return fmt.Errorf("archive.index_urls must not be empty")
	}
	if strings.TrimSpace(c.Checkpoint.Path) == "" {
		return fmt.Errorf("checkpoint.path must be set")
	}
	if strings.TrimSpace(c.Storage.DataRoot) == "" {
		return fmt.Errorf("storage.data_root must be set")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Crawl.SaveAttempts <= 0 {
		return fmt.Errorf("crawl.save_attempts must be > 0")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
