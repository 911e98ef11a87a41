// Package storage implements the filesystem contract for scraped
// artifacts: the Artists/<artist>/<album>/<song> tree under a data
// root, idempotent directory creation, and the per-song files.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ccampell/lyricscrawler/internal/archive"
)

// Per-song artifact file names.
const (
	TextFileName          = "ascii.txt"
	TranscriptionFileName = "transcription.json"
)

// Layout roots the artifact tree at a data directory.
type Layout struct {
	root   string
	logger *zap.Logger
}

// New validates the data root and returns a Layout for it.
func New(root string, logger *zap.Logger) (*Layout, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("data root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create data root %s: %w", root, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Layout{root: root, logger: logger}, nil
}

// Root returns the data root directory.
func (l *Layout) Root() string {
	return l.root
}

// ArtistPath returns the storage directory for an artist.
func (l *Layout) ArtistPath(artist string) (string, error) {
	return l.join(artist)
}

// AlbumPath returns the storage directory for an album.
func (l *Layout) AlbumPath(artist, album string) (string, error) {
	return l.join(artist, album)
}

// SongPath returns the storage directory for a song.
func (l *Layout) SongPath(artist, album, song string) (string, error) {
	return l.join(artist, album, song)
}

// EnsureDir creates the directory if needed. An already-existing
// directory is success, not an error.
func (l *Layout) EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists and is not a directory", path)
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create dir %s: %w", path, err)
	}
	return nil
}

// WriteSongText stores the raw lyric text in the song directory.
func (l *Layout) WriteSongText(dir, text string) error {
	target := filepath.Join(dir, TextFileName)
	if err := os.WriteFile(target, []byte(text), 0o600); err != nil {
		return fmt.Errorf("write song text %s: %w", target, err)
	}
	return nil
}

// WriteTranscription stores the transcription output and its failure
// statistics as JSON in the song directory.
func (l *Layout) WriteTranscription(dir string, t archive.Transcription) error {
	payload, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcription: %w", err)
	}
	target := filepath.Join(dir, TranscriptionFileName)
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write transcription %s: %w", target, err)
	}
	return nil
}

// join builds a path under the data root from sanitized entity names.
func (l *Layout) join(names ...string) (string, error) {
	parts := []string{l.root, "Artists"}
	for _, name := range names {
		cleaned, err := sanitizeName(name)
		if err != nil {
			return "", err
		}
		parts = append(parts, cleaned)
	}
	full := filepath.Join(parts...)

	// Joined paths must stay under the root even if sanitization ever
	// lets something odd through.
	cleanRoot := filepath.Clean(l.root)
	if !strings.HasPrefix(filepath.Clean(full), cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the data root", archive.ErrUnusableName, strings.Join(names, "/"))
	}
	return full, nil
}

// sanitizeName validates an entity name for use as a path element. The
// crawl driver treats a failure here as the entity being unreachable.
func sanitizeName(name string) (string, error) {
	cleaned := strings.TrimSpace(name)
	cleaned = strings.TrimSuffix(cleaned, ".txt")
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "", fmt.Errorf("%w: %q", archive.ErrUnusableName, name)
	}
	if strings.ContainsAny(cleaned, "/\\\x00") {
		return "", fmt.Errorf("%w: %q", archive.ErrUnusableName, name)
	}
	return cleaned, nil
}
