// Package archive defines the core crawl-state model shared across
// subsystems: the artist/album/song tree, the per-entity stage enums,
// the resume marker, and the collaborator interfaces the crawl driver
// depends on.
package archive

import (
	"time"
)

// ArtistID uniquely identifies an artist within a tree. Identifiers are
// assigned from a monotonic counter at first discovery and never
// reused, so removing one artist never perturbs the identifiers of the
// others (they may already be referenced by files on disk).
type ArtistID int

// AlbumID uniquely identifies an album within its owning artist.
type AlbumID int

// SongID uniquely identifies a song within its owning album.
type SongID int

// Tree is the full crawl state persisted to the checkpoint file. It is
// owned exclusively by one crawl driver for the duration of a run.
type Tree struct {
	// NextAID is the next artist identifier to assign.
	NextAID ArtistID `json:"next_aid"`
	// Artists maps artist identifiers to artists in insertion order.
	Artists *OrderedMap[ArtistID, *Artist] `json:"artists"`
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{Artists: NewOrderedMap[ArtistID, *Artist]()}
}

// AddArtist records a newly-discovered artist, assigning the next
// stable identifier.
func (t *Tree) AddArtist(name, url string) *Artist {
	a := &Artist{
		ID:     t.NextAID,
		Name:   name,
		URL:    url,
		Stage:  StageDiscovered,
		Resume: NotStartedMarker(),
		Albums: NewOrderedMap[AlbumID, *Album](),
	}
	t.Artists.Set(a.ID, a)
	t.NextAID++
	return a
}

// RemoveArtist deletes an unreachable artist. Surviving artists keep
// their identifiers.
func (t *Tree) RemoveArtist(id ArtistID) {
	t.Artists.Delete(id)
}

// Complete reports whether every artist in the tree is terminal.
func (t *Tree) Complete() bool {
	for _, id := range t.Artists.Keys() {
		a, _ := t.Artists.Get(id)
		if !a.Stage.Terminal() {
			return false
		}
	}
	return true
}

// Artist is one artist's crawl state and album children.
type Artist struct {
	ID         ArtistID                     `json:"aid"`
	Name       string                       `json:"name"`
	URL        string                       `json:"url"`
	StorageDir string                       `json:"storage_dir,omitempty"`
	Stage      ScrapeStage                  `json:"scrape_stage"`
	Resume     ResumeMarker                 `json:"resume_target"`
	NextALID   AlbumID                      `json:"next_alid"`
	Albums     *OrderedMap[AlbumID, *Album] `json:"albums"`
}

// AddAlbum records a newly-enumerated album under the artist.
func (a *Artist) AddAlbum(name, url string) *Album {
	if a.Albums == nil {
		a.Albums = NewOrderedMap[AlbumID, *Album]()
	}
	al := &Album{
		ArtistID: a.ID,
		ID:       a.NextALID,
		Name:     name,
		URL:      url,
		Stage:    StageDiscovered,
		Songs:    NewOrderedMap[SongID, *Song](),
	}
	a.Albums.Set(al.ID, al)
	a.NextALID++
	return al
}

// Album is one album's crawl state and song children.
type Album struct {
	ArtistID   ArtistID                   `json:"assoc_aid"`
	ID         AlbumID                    `json:"alid"`
	Name       string                     `json:"name"`
	URL        string                     `json:"url"`
	StorageDir string                     `json:"storage_dir,omitempty"`
	Stage      ScrapeStage                `json:"scrape_stage"`
	// Scraped is true only when every contained song is terminal.
	Scraped bool                       `json:"scraped"`
	NextSID SongID                     `json:"next_sid"`
	Songs   *OrderedMap[SongID, *Song] `json:"songs"`
}

// AddSong records a newly-enumerated song under the album.
func (al *Album) AddSong(name, url string) *Song {
	if al.Songs == nil {
		al.Songs = NewOrderedMap[SongID, *Song]()
	}
	s := &Song{
		AlbumID: al.ID,
		ID:      al.NextSID,
		Name:    name,
		URL:     url,
		Stage:   SongMetadataRecorded,
	}
	al.Songs.Set(s.ID, s)
	al.NextSID++
	return s
}

// SongsTerminal reports whether every song under the album has either
// transcribed or permanently failed. Vacuously true for zero songs.
func (al *Album) SongsTerminal() bool {
	for _, sid := range al.Songs.Keys() {
		s, _ := al.Songs.Get(sid)
		if !s.Terminal() {
			return false
		}
	}
	return true
}

// Song is one song's crawl state and scraped artifacts.
type Song struct {
	AlbumID    AlbumID   `json:"assoc_alid"`
	ID         SongID    `json:"sid"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	StorageDir string    `json:"storage_dir,omitempty"`
	Stage      SongStage `json:"song_stage"`
	// RawText is immutable once set; downstream stages derive from it
	// without mutating it, so they can re-run without a re-fetch.
	RawText       string         `json:"ascii,omitempty"`
	ContentHash   string         `json:"content_hash,omitempty"`
	FetchedAt     *time.Time     `json:"fetched_at,omitempty"`
	Transcription *Transcription `json:"transcription,omitempty"`
	// Failed marks a permanent per-song failure (404-class). Failed
	// songs are terminal for selection but never advance their stage.
	Failed     bool   `json:"failed,omitempty"`
	FailReason string `json:"fail_reason,omitempty"`
}

// SetRawText records the fetched lyric text exactly once.
func (s *Song) SetRawText(text string) bool {
	if s.RawText != "" {
		return false
	}
	s.RawText = text
	return true
}

// MarkFailed records a permanent failure for the song.
func (s *Song) MarkFailed(reason string) {
	s.Failed = true
	s.FailReason = reason
}

// Terminal reports whether the song needs no further processing.
func (s *Song) Terminal() bool {
	return s.Failed || s.Stage.Terminal()
}

// Transcription holds the output of the cleaning and phonetic
// transcription stage for one song.
type Transcription struct {
	CleanText string             `json:"clean_text"`
	Graphones []Graphone         `json:"graphones"`
	Failed    []string           `json:"failed_tokens"`
	Stats     TranscriptionStats `json:"stats"`
}

// Graphone pairs a word with its phoneme sequence.
type Graphone struct {
	Word     string   `json:"word"`
	Phonemes []string `json:"phonemes"`
}

// TranscriptionStats summarizes transcription coverage for one song.
type TranscriptionStats struct {
	Lines       int     `json:"lines"`
	Tokens      int     `json:"tokens"`
	Transcribed int     `json:"transcribed"`
	Failed      int     `json:"failed"`
	Coverage    float64 `json:"coverage"`
}

// RecomputeFlags refreshes derived state after a stage transition:
// each album's scraped flag, each artist's aggregate stages, and the
// resume markers. It must run before the next selection cycle.
func (t *Tree) RecomputeFlags() {
	for _, aid := range t.Artists.Keys() {
		artist, _ := t.Artists.Get(aid)
		recomputeArtist(artist)
	}
}

func recomputeArtist(artist *Artist) {
	if artist.Stage < StageChildrenEnumerated {
		return
	}

	allDirs := true
	allScraped := true
	var lastWorked *Song
	var lastWorkedAlbum AlbumID

	for _, alid := range artist.Albums.Keys() {
		album, _ := artist.Albums.Get(alid)
		if album.Stage >= StageChildrenEnumerated {
			album.Scraped = album.SongsTerminal()
		}
		if album.Stage < StageDirInitialized {
			allDirs = false
		}
		if !album.Scraped {
			allScraped = false
		}
		for _, sid := range album.Songs.Keys() {
			song, _ := album.Songs.Get(sid)
			if song.Stage > SongMetadataRecorded || song.Failed {
				lastWorked = song
				lastWorkedAlbum = alid
			}
		}
	}

	// Vacuously true for zero albums: an artist whose every album was
	// removed as unreachable has nothing left to process.
	if allDirs {
		artist.Stage = artist.Stage.Advance(StageChildrenDirsInitialized)
	}
	if allScraped {
		artist.Stage = artist.Stage.Advance(StageChildrenProcessed)
	}

	switch {
	case artist.Stage.Terminal():
		artist.Resume = CompleteMarker()
	case lastWorked != nil:
		artist.Resume = InProgressMarker(lastWorkedAlbum, lastWorked.ID)
	default:
		artist.Resume = NotStartedMarker()
	}
}
