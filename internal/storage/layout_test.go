package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccampell/lyricscrawler/internal/archive"
)

func newTestLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "data"), nil)
	require.NoError(t, err)
	return l
}

func TestNewRejectsEmptyRoot(t *testing.T) {
	_, err := New("  ", nil)
	require.Error(t, err)
}

func TestPaths(t *testing.T) {
	l := newTestLayout(t)

	artistPath, err := l.ArtistPath("Rakim")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.Root(), "Artists", "Rakim"), artistPath)

	albumPath, err := l.AlbumPath("Rakim", "Paid in Full")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(artistPath, "Paid in Full"), albumPath)

	songPath, err := l.SongPath("Rakim", "Paid in Full", "My Melody")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(albumPath, "My Melody"), songPath)
}

func TestPathsStripTxtSuffix(t *testing.T) {
	l := newTestLayout(t)
	songPath, err := l.SongPath("Rakim", "Paid in Full", "my_melody.txt")
	require.NoError(t, err)
	assert.Equal(t, "my_melody", filepath.Base(songPath))
}

func TestUnusableNames(t *testing.T) {
	l := newTestLayout(t)
	for _, name := range []string{"", "   ", ".", "..", "a/b", `a\b`, "a\x00b", ".txt"} {
		t.Run("name "+name, func(t *testing.T) {
			_, err := l.ArtistPath(name)
			require.ErrorIs(t, err, archive.ErrUnusableName, "name %q must be rejected", name)
		})
	}
}

func TestEnsureDir(t *testing.T) {
	l := newTestLayout(t)
	path, err := l.ArtistPath("Rakim")
	require.NoError(t, err)

	require.NoError(t, l.EnsureDir(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent on re-run.
	require.NoError(t, l.EnsureDir(path))

	// A file in the way is an error, not silent success.
	filePath := filepath.Join(l.Root(), "occupied")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o600))
	require.Error(t, l.EnsureDir(filePath))
}

func TestWriteSongText(t *testing.T) {
	l := newTestLayout(t)
	dir, err := l.SongPath("Rakim", "Paid in Full", "My Melody")
	require.NoError(t, err)
	require.NoError(t, l.EnsureDir(dir))

	require.NoError(t, l.WriteSongText(dir, "Turn up the bass\n"))
	data, err := os.ReadFile(filepath.Join(dir, TextFileName))
	require.NoError(t, err)
	assert.Equal(t, "Turn up the bass\n", string(data))
}

func TestWriteTranscription(t *testing.T) {
	l := newTestLayout(t)
	dir, err := l.SongPath("Rakim", "Paid in Full", "My Melody")
	require.NoError(t, err)
	require.NoError(t, l.EnsureDir(dir))

	in := archive.Transcription{
		CleanText: "turn up the bass",
		Graphones: []archive.Graphone{{Word: "turn", Phonemes: []string{"T", "ER1", "N"}}},
		Failed:    []string{"wattage"},
		Stats:     archive.TranscriptionStats{Lines: 1, Tokens: 4, Transcribed: 3, Failed: 1, Coverage: 0.75},
	}
	require.NoError(t, l.WriteTranscription(dir, in))

	data, err := os.ReadFile(filepath.Join(dir, TranscriptionFileName))
	require.NoError(t, err)

	var out archive.Transcription
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
