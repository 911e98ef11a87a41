package archive

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeIdentifiers(t *testing.T) {
	tree := NewTree()
	a := tree.AddArtist("Rakim", "http://example.com/rakim")
	b := tree.AddArtist("Nas", "http://example.com/nas")
	c := tree.AddArtist("KRS-One", "http://example.com/krs")

	assert.Equal(t, ArtistID(0), a.ID)
	assert.Equal(t, ArtistID(1), b.ID)
	assert.Equal(t, ArtistID(2), c.ID)

	// Removing one artist leaves the others' identifiers untouched and
	// never recycles the removed one.
	tree.RemoveArtist(b.ID)
	d := tree.AddArtist("Common", "http://example.com/common")
	assert.Equal(t, ArtistID(3), d.ID)
	assert.Equal(t, []ArtistID{0, 2, 3}, tree.Artists.Keys())

	_, ok := tree.Artists.Get(1)
	assert.False(t, ok)
}

func TestAlbumAndSongIdentifiers(t *testing.T) {
	tree := NewTree()
	artist := tree.AddArtist("Rakim", "http://example.com/rakim")

	al0 := artist.AddAlbum("Paid in Full", "http://example.com/pif")
	al1 := artist.AddAlbum("Follow the Leader", "http://example.com/ftl")
	assert.Equal(t, AlbumID(0), al0.ID)
	assert.Equal(t, AlbumID(1), al1.ID)
	assert.Equal(t, artist.ID, al0.ArtistID)

	s0 := al0.AddSong("I Ain't No Joke", "http://example.com/joke")
	s1 := al0.AddSong("Eric B. Is President", "http://example.com/president")
	assert.Equal(t, SongID(0), s0.ID)
	assert.Equal(t, SongID(1), s1.ID)
	assert.Equal(t, al0.ID, s0.AlbumID)

	// Deleting a song does not make its identifier reusable.
	al0.Songs.Delete(s0.ID)
	s2 := al0.AddSong("My Melody", "http://example.com/melody")
	assert.Equal(t, SongID(2), s2.ID)
}

func TestSongRawTextImmutable(t *testing.T) {
	s := &Song{}
	require.True(t, s.SetRawText("first"))
	assert.False(t, s.SetRawText("second"))
	assert.Equal(t, "first", s.RawText)
}

func TestSongTerminal(t *testing.T) {
	s := &Song{Stage: SongTextFetched}
	assert.False(t, s.Terminal())

	s.MarkFailed("lyrics unreachable")
	assert.True(t, s.Terminal())
	assert.Equal(t, SongTextFetched, s.Stage, "failure must not advance the stage")

	ok := &Song{Stage: SongTranscribed}
	assert.True(t, ok.Terminal())
}

func TestRecomputeFlags(t *testing.T) {
	build := func() (*Tree, *Artist, *Album) {
		tree := NewTree()
		artist := tree.AddArtist("Rakim", "http://example.com/rakim")
		artist.Stage = StageChildrenEnumerated
		album := artist.AddAlbum("Paid in Full", "http://example.com/pif")
		album.Stage = StageChildrenEnumerated
		album.AddSong("I Ain't No Joke", "http://example.com/joke")
		album.AddSong("My Melody", "http://example.com/melody")
		return tree, artist, album
	}

	t.Run("album scraped only when every song is terminal", func(t *testing.T) {
		tree, _, album := build()
		tree.RecomputeFlags()
		assert.False(t, album.Scraped)

		s0, _ := album.Songs.Get(0)
		s1, _ := album.Songs.Get(1)
		s0.Stage = SongTranscribed
		tree.RecomputeFlags()
		assert.False(t, album.Scraped)

		s1.MarkFailed("gone")
		tree.RecomputeFlags()
		assert.True(t, album.Scraped, "a failed song still counts as terminal")
	})

	t.Run("artist terminal when all albums scraped", func(t *testing.T) {
		tree, artist, album := build()
		album.Stage = StageChildrenEnumerated
		for _, sid := range album.Songs.Keys() {
			s, _ := album.Songs.Get(sid)
			s.Stage = SongTranscribed
		}
		tree.RecomputeFlags()
		assert.True(t, artist.Stage.Terminal())
		assert.Equal(t, CompleteMarker(), artist.Resume)
		assert.True(t, tree.Complete())
	})

	t.Run("resume marker points at the last worked song", func(t *testing.T) {
		tree, artist, album := build()
		s0, _ := album.Songs.Get(0)
		s0.Stage = SongTextFetched
		tree.RecomputeFlags()
		assert.Equal(t, InProgressMarker(album.ID, s0.ID), artist.Resume)
	})

	t.Run("untouched artist keeps not_started", func(t *testing.T) {
		tree := NewTree()
		artist := tree.AddArtist("Nas", "http://example.com/nas")
		tree.RecomputeFlags()
		assert.Equal(t, NotStartedMarker(), artist.Resume)
		assert.False(t, tree.Complete())
	})

	t.Run("artist is terminal once its last album is removed", func(t *testing.T) {
		tree, artist, album := build()
		artist.Stage = StageChildrenDirsInitialized
		artist.Albums.Delete(album.ID)

		tree.RecomputeFlags()
		assert.True(t, artist.Stage.Terminal())
		assert.Equal(t, CompleteMarker(), artist.Resume)
		assert.True(t, tree.Complete())
	})
}

func TestTreeJSONRoundTrip(t *testing.T) {
	tree := NewTree()
	artist := tree.AddArtist("Rakim", "http://example.com/rakim")
	artist.Stage = StageChildrenEnumerated
	artist.StorageDir = "data/Artists/Rakim"
	album := artist.AddAlbum("Paid in Full", "http://example.com/pif")
	album.Stage = StageChildrenEnumerated
	song := album.AddSong("My Melody", "http://example.com/melody")
	song.Stage = SongTextFetched
	song.SetRawText("Turn up the bass\n")
	song.ContentHash = "abc123"
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	song.FetchedAt = &fetched
	tree.RecomputeFlags()

	data, err := json.MarshalIndent(tree, "", "    ")
	require.NoError(t, err)

	var decoded Tree
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, tree.NextAID, decoded.NextAID)
	assert.Equal(t, tree.Artists.Keys(), decoded.Artists.Keys())

	gotArtist, ok := decoded.Artists.Get(artist.ID)
	require.True(t, ok)
	assert.Equal(t, artist.Name, gotArtist.Name)
	assert.Equal(t, artist.Stage, gotArtist.Stage)
	assert.Equal(t, artist.Resume, gotArtist.Resume)
	assert.Equal(t, artist.NextALID, gotArtist.NextALID)

	gotAlbum, ok := gotArtist.Albums.Get(album.ID)
	require.True(t, ok)
	assert.Equal(t, album.Name, gotAlbum.Name)
	assert.Equal(t, album.NextSID, gotAlbum.NextSID)

	gotSong, ok := gotAlbum.Songs.Get(song.ID)
	require.True(t, ok)
	assert.Equal(t, song.RawText, gotSong.RawText)
	assert.Equal(t, song.Stage, gotSong.Stage)
	require.NotNil(t, gotSong.FetchedAt)
	assert.True(t, fetched.Equal(*gotSong.FetchedAt))
}
