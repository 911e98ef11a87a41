// Package resume selects the next incomplete unit of work from a crawl
// tree. Selection is deterministic: insertion order is the only
// ordering signal, which makes resume behavior reproducible.
package resume

import (
	"fmt"

	"github.com/ccampell/lyricscrawler/internal/archive"
)

// UnitKind identifies what a selected unit refers to.
type UnitKind string

// Unit kinds returned by the selector.
const (
	UnitArtist UnitKind = "artist"
	UnitAlbum  UnitKind = "album"
	UnitSong   UnitKind = "song"
	// UnitNone is the sentinel meaning no selectable work remains.
	UnitNone UnitKind = "none"
)

// Unit is one artist, album, or song selected for processing.
type Unit struct {
	Kind     UnitKind
	ArtistID archive.ArtistID
	AlbumID  archive.AlbumID
	SongID   archive.SongID
}

// Done reports whether the unit is the no-work sentinel.
func (u Unit) Done() bool {
	return u.Kind == UnitNone
}

// Key returns a stable identity for skip bookkeeping within a pass.
func (u Unit) Key() string {
	switch u.Kind {
	case UnitArtist:
		return fmt.Sprintf("artist/%d", int(u.ArtistID))
	case UnitAlbum:
		return fmt.Sprintf("album/%d/%d", int(u.ArtistID), int(u.AlbumID))
	case UnitSong:
		return fmt.Sprintf("song/%d/%d/%d", int(u.ArtistID), int(u.AlbumID), int(u.SongID))
	default:
		return "none"
	}
}

// SkipSet tracks units that already ran (or transiently failed) during
// the current pass so they are not selected again until the next pass.
type SkipSet map[string]struct{}

// Add marks a unit as skipped for the rest of the pass.
func (s SkipSet) Add(u Unit) {
	s[u.Key()] = struct{}{}
}

// Has reports whether the unit is skipped.
func (s SkipSet) Has(u Unit) bool {
	_, ok := s[u.Key()]
	return ok
}

// Next returns the first incomplete unit in priority order: the first
// artist (by insertion order) whose stage is not terminal; within it
// the first album whose scraped flag is false; within that the first
// song that is not terminal. Units present in skip are passed over.
// When nothing selectable remains it returns the UnitNone sentinel.
func Next(tree *archive.Tree, skip SkipSet) Unit {
	if skip == nil {
		skip = SkipSet{}
	}
	for _, aid := range tree.Artists.Keys() {
		artist, _ := tree.Artists.Get(aid)
		if artist.Stage.Terminal() {
			continue
		}
		if unit, ok := nextInArtist(artist, skip); ok {
			return unit
		}
	}
	return Unit{Kind: UnitNone}
}

func nextInArtist(artist *archive.Artist, skip SkipSet) (Unit, bool) {
	if artist.Stage < archive.StageChildrenEnumerated {
		unit := Unit{Kind: UnitArtist, ArtistID: artist.ID}
		if skip.Has(unit) {
			// The artist's children do not exist yet, so nothing else
			// in this subtree is selectable this pass.
			return Unit{}, false
		}
		return unit, true
	}

	for _, alid := range artist.Albums.Keys() {
		album, _ := artist.Albums.Get(alid)
		if album.Scraped {
			continue
		}
		if unit, ok := nextInAlbum(artist.ID, album, skip); ok {
			return unit, true
		}
	}
	return Unit{}, false
}

func nextInAlbum(aid archive.ArtistID, album *archive.Album, skip SkipSet) (Unit, bool) {
	if album.Stage < archive.StageChildrenEnumerated {
		unit := Unit{Kind: UnitAlbum, ArtistID: aid, AlbumID: album.ID}
		if skip.Has(unit) {
			return Unit{}, false
		}
		return unit, true
	}

	for _, sid := range album.Songs.Keys() {
		song, _ := album.Songs.Get(sid)
		if song.Terminal() {
			continue
		}
		unit := Unit{Kind: UnitSong, ArtistID: aid, AlbumID: album.ID, SongID: sid}
		if skip.Has(unit) {
			continue
		}
		return unit, true
	}
	return Unit{}, false
}
