package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ccampell/lyricscrawler/internal/archive"
)

func newTestFile(t *testing.T) *File {
	t.Helper()
	f, err := New(filepath.Join(t.TempDir(), "metadata", "target_artists.json"), zap.NewNop())
	require.NoError(t, err)
	return f
}

func sampleTree() *archive.Tree {
	tree := archive.NewTree()
	artist := tree.AddArtist("Rakim", "http://example.com/rakim")
	artist.Stage = archive.StageChildrenEnumerated
	album := artist.AddAlbum("Paid in Full", "http://example.com/pif")
	album.Stage = archive.StageChildrenEnumerated
	song := album.AddSong("My Melody", "http://example.com/melody")
	song.Stage = archive.SongTextFetched
	song.SetRawText("Turn up the bass\n")
	tree.AddArtist("Nas", "http://example.com/nas")
	tree.RecomputeFlags()
	return tree
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("   ", zap.NewNop())
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	f := newTestFile(t)
	_, err := f.Load()
	require.ErrorIs(t, err, archive.ErrNoCheckpoint)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := newTestFile(t)
	tree := sampleTree()
	require.NoError(t, f.Save(tree))

	loaded, err := f.Load()
	require.NoError(t, err)

	assert.Equal(t, tree.NextAID, loaded.NextAID)
	assert.Equal(t, tree.Artists.Keys(), loaded.Artists.Keys())

	want, _ := tree.Artists.Get(0)
	got, ok := loaded.Artists.Get(0)
	require.True(t, ok)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Stage, got.Stage)
	assert.Equal(t, want.Resume, got.Resume)

	wantAlbum, _ := want.Albums.Get(0)
	gotAlbum, ok := got.Albums.Get(0)
	require.True(t, ok)
	assert.Equal(t, wantAlbum.Name, gotAlbum.Name)

	wantSong, _ := wantAlbum.Songs.Get(0)
	gotSong, ok := gotAlbum.Songs.Get(0)
	require.True(t, ok)
	assert.Equal(t, wantSong.RawText, gotSong.RawText)
	assert.Equal(t, wantSong.Stage, gotSong.Stage)
}

func TestSaveReplacesAtomically(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Save(sampleTree()))

	second := archive.NewTree()
	second.AddArtist("KRS-One", "http://example.com/krs")
	require.NoError(t, f.Save(second))

	loaded, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Artists.Len())

	// No temp files are left behind after a successful save.
	entries, err := os.ReadDir(filepath.Dir(f.Path()))
	require.NoError(t, err)
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("stray temp file %s after save", entry.Name())
		}
	}
}

func TestLoadCorruptCheckpoint(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"truncated json", `{"next_aid": 1, "artists": {"0": {"aid"`},
		{"not json at all", `hello`},
		{"missing artists", `{"next_aid": 0}`},
		{"unknown enum member", `{"next_aid":1,"artists":{"0":{"aid":0,"name":"Rakim","url":"http://x","scrape_stage":{"__enum__":"ScrapeStage.stage_99"},"resume_target":{"state":"not_started"},"next_alid":0,"albums":{}}}}`},
		{"missing required fields", `{"next_aid":1,"artists":{"0":{"aid":0,"name":"","url":"","scrape_stage":{"__enum__":"ScrapeStage.discovered"},"resume_target":{"state":"not_started"},"next_alid":0,"albums":{}}}}`},
		{"missing albums", `{"next_aid":1,"artists":{"0":{"aid":0,"name":"Rakim","url":"http://x","scrape_stage":{"__enum__":"ScrapeStage.discovered"},"resume_target":{"state":"not_started"},"next_alid":0}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestFile(t)
			require.NoError(t, os.WriteFile(f.Path(), []byte(tc.payload), 0o600))
			_, err := f.Load()
			require.ErrorIs(t, err, archive.ErrCorruptCheckpoint)
		})
	}
}

func TestSaveFailureReportsPersistence(t *testing.T) {
	dir := t.TempDir()
	f, err := New(filepath.Join(dir, "target_artists.json"), zap.NewNop())
	require.NoError(t, err)

	// A directory squatting on the checkpoint path makes the final
	// rename fail.
	require.NoError(t, os.Mkdir(f.Path(), 0o750))

	err = f.Save(sampleTree())
	require.ErrorIs(t, err, archive.ErrPersistenceFailure)

	// The temp file was cleaned up on the way out.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("stray temp file %s after failed save", entry.Name())
		}
	}
}

func TestLockLifecycle(t *testing.T) {
	t.Run("acquire and release", func(t *testing.T) {
		f := newTestFile(t)
		require.NoError(t, f.Acquire())
		_, err := os.Stat(f.Path() + ".lock")
		require.NoError(t, err)
		require.NoError(t, f.Release())
		_, err = os.Stat(f.Path() + ".lock")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("live holder blocks a second acquire", func(t *testing.T) {
		f := newTestFile(t)
		require.NoError(t, f.Acquire())
		defer func() { _ = f.Release() }()

		other, err := New(f.Path(), zap.NewNop())
		require.NoError(t, err)
		err = other.Acquire()
		require.Error(t, err)
		assert.True(t, IsLocked(err))
	})

	t.Run("stale lock from a dead process is broken", func(t *testing.T) {
		f := newTestFile(t)
		// PIDs monotonically wrap below pid_max; this one cannot exist.
		require.NoError(t, os.WriteFile(f.Path()+".lock", []byte("4194304999\n"), 0o600))
		require.NoError(t, f.Acquire())
		require.NoError(t, f.Release())
	})

	t.Run("garbage lock content is broken", func(t *testing.T) {
		f := newTestFile(t)
		require.NoError(t, os.WriteFile(f.Path()+".lock", []byte("not a pid"), 0o600))
		require.NoError(t, f.Acquire())
		require.NoError(t, f.Release())
	})

	t.Run("release without a lock is safe", func(t *testing.T) {
		f := newTestFile(t)
		require.NoError(t, f.Release())
	})
}

func TestIsLocked(t *testing.T) {
	assert.False(t, IsLocked(errors.New("other")))
	assert.False(t, IsLocked(nil))
}
