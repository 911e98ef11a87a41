package driver

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ccampell/lyricscrawler/internal/archive"
	"github.com/ccampell/lyricscrawler/internal/progress"
	"github.com/ccampell/lyricscrawler/internal/resume"
)

// processArtist handles the artist-level stages: storage directory
// creation and album enumeration.
func (d *Driver) processArtist(ctx context.Context, unit resume.Unit) outcome {
	artist, ok := d.tree.Artists.Get(unit.ArtistID)
	if !ok {
		return outcomeDeferred
	}

	switch artist.Stage {
	case archive.StageDiscovered:
		path, err := d.store.ArtistPath(artist.Name)
		if err == nil {
			err = d.store.EnsureDir(path)
		}
		if err != nil {
			return d.removeArtist(unit, artist, "storage directory unusable: "+err.Error())
		}
		artist.StorageDir = path
		artist.Stage = artist.Stage.Advance(archive.StageDirInitialized)
		d.emitAdvanced(unit, artist.Name, artist.Stage.String(), 0)
		return outcomeAdvanced

	case archive.StageDirInitialized:
		fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
		entries, err := d.fetcher.FetchListing(fetchCtx, artist.URL)
		cancel()
		switch {
		case errors.Is(err, archive.ErrNotFound):
			return d.removeArtist(unit, artist, "albums unreachable: "+err.Error())
		case err != nil:
			d.emitDeferred(unit, artist.Name, err)
			return outcomeDeferred
		case len(entries) == 0:
			return d.removeArtist(unit, artist, "no albums listed")
		}
		for _, entry := range entries {
			artist.AddAlbum(entry.Name, entry.URL)
		}
		artist.Stage = artist.Stage.Advance(archive.StageChildrenEnumerated)
		d.emitAdvanced(unit, artist.Name, artist.Stage.String(), 0)
		return outcomeAdvanced
	}
	return outcomeDeferred
}

// processAlbum handles the album-level stages: storage directory
// creation and song enumeration.
func (d *Driver) processAlbum(ctx context.Context, unit resume.Unit) outcome {
	artist, ok := d.tree.Artists.Get(unit.ArtistID)
	if !ok {
		return outcomeDeferred
	}
	album, ok := artist.Albums.Get(unit.AlbumID)
	if !ok {
		return outcomeDeferred
	}

	switch album.Stage {
	case archive.StageDiscovered:
		path, err := d.store.AlbumPath(artist.Name, album.Name)
		if err == nil {
			err = d.store.EnsureDir(path)
		}
		if err != nil {
			return d.removeAlbum(unit, artist, album, "storage directory unusable: "+err.Error())
		}
		album.StorageDir = path
		album.Stage = album.Stage.Advance(archive.StageDirInitialized)
		d.emitAdvanced(unit, album.Name, album.Stage.String(), 0)
		return outcomeAdvanced

	case archive.StageDirInitialized:
		fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
		entries, err := d.fetcher.FetchListing(fetchCtx, album.URL)
		cancel()
		switch {
		case errors.Is(err, archive.ErrNotFound):
			return d.removeAlbum(unit, artist, album, "songs unreachable: "+err.Error())
		case err != nil:
			d.emitDeferred(unit, album.Name, err)
			return outcomeDeferred
		case len(entries) == 0:
			return d.removeAlbum(unit, artist, album, "no songs listed")
		}
		for _, entry := range entries {
			album.AddSong(entry.Name, entry.URL)
		}
		album.Stage = album.Stage.Advance(archive.StageChildrenEnumerated)
		d.emitAdvanced(unit, album.Name, album.Stage.String(), 0)
		return outcomeAdvanced
	}
	return outcomeDeferred
}

// processSong handles the song-level stages: directory creation, text
// fetch, and transcription.
func (d *Driver) processSong(ctx context.Context, unit resume.Unit) outcome {
	artist, ok := d.tree.Artists.Get(unit.ArtistID)
	if !ok {
		return outcomeDeferred
	}
	album, ok := artist.Albums.Get(unit.AlbumID)
	if !ok {
		return outcomeDeferred
	}
	song, ok := album.Songs.Get(unit.SongID)
	if !ok {
		return outcomeDeferred
	}

	switch song.Stage {
	case archive.SongMetadataRecorded:
		path, err := d.store.SongPath(artist.Name, album.Name, song.Name)
		if err == nil {
			err = d.store.EnsureDir(path)
		}
		if err != nil {
			return d.failSong(unit, song, "storage directory unusable: "+err.Error())
		}
		song.StorageDir = path
		song.Stage = song.Stage.Advance(archive.SongDirInitialized)
		d.emitAdvanced(unit, song.Name, song.Stage.String(), 0)
		return outcomeAdvanced

	case archive.SongDirInitialized:
		return d.fetchSongText(ctx, unit, song)

	case archive.SongTextFetched:
		return d.transcribeSong(ctx, unit, song)
	}
	return outcomeDeferred
}

// fetchSongText retrieves and stores the raw lyric text. The text file
// is written before the in-memory state advances so a write failure
// leaves the song cleanly retryable.
func (d *Driver) fetchSongText(ctx context.Context, unit resume.Unit, song *archive.Song) outcome {
	fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
	text, err := d.fetcher.FetchText(fetchCtx, song.URL)
	cancel()
	switch {
	case errors.Is(err, archive.ErrNotFound):
		return d.failSong(unit, song, "lyrics unreachable: "+err.Error())
	case err != nil:
		d.emitDeferred(unit, song.Name, err)
		return outcomeDeferred
	}

	if err := d.store.WriteSongText(song.StorageDir, text); err != nil {
		d.emitDeferred(unit, song.Name, err)
		return outcomeDeferred
	}

	song.SetRawText(text)
	if hash, err := d.hasher.Hash([]byte(text)); err == nil {
		song.ContentHash = hash
	}
	fetchedAt := d.clock.Now()
	song.FetchedAt = &fetchedAt
	song.Stage = song.Stage.Advance(archive.SongTextFetched)
	d.emitAdvanced(unit, song.Name, song.Stage.String(), int64(len(text)))
	return outcomeAdvanced
}

// transcribeSong runs the downstream cleaning/transcription stage over
// the already-fetched raw text. The raw text is never re-fetched or
// mutated here.
func (d *Driver) transcribeSong(ctx context.Context, unit resume.Unit, song *archive.Song) outcome {
	if song.RawText == "" {
		return d.failSong(unit, song, "raw text missing at transcription stage")
	}

	transcription, err := d.transcriber.Transcribe(ctx, song.RawText)
	if err != nil {
		d.emitDeferred(unit, song.Name, err)
		return outcomeDeferred
	}
	if err := d.store.WriteTranscription(song.StorageDir, transcription); err != nil {
		d.emitDeferred(unit, song.Name, err)
		return outcomeDeferred
	}

	song.Transcription = &transcription
	song.Stage = song.Stage.Advance(archive.SongTranscribed)
	d.emitAdvanced(unit, song.Name, song.Stage.String(), 0)
	return outcomeAdvanced
}

func (d *Driver) removeArtist(unit resume.Unit, artist *archive.Artist, reason string) outcome {
	d.tree.RemoveArtist(artist.ID)
	d.logger.Warn("artist removed as unreachable",
		zap.Int("aid", int(artist.ID)),
		zap.String("name", artist.Name),
		zap.String("reason", reason),
	)
	d.reporter.Emit(progress.Event{
		Unit:   unit,
		Action: progress.ActionRemoved,
		Name:   artist.Name,
		Note:   reason,
	})
	return outcomeRemoved
}

func (d *Driver) removeAlbum(unit resume.Unit, artist *archive.Artist, album *archive.Album, reason string) outcome {
	artist.Albums.Delete(album.ID)
	d.logger.Warn("album removed as unreachable",
		zap.Int("aid", int(artist.ID)),
		zap.Int("alid", int(album.ID)),
		zap.String("name", album.Name),
		zap.String("reason", reason),
	)
	d.reporter.Emit(progress.Event{
		Unit:   unit,
		Action: progress.ActionRemoved,
		Name:   album.Name,
		Note:   reason,
	})
	return outcomeRemoved
}

func (d *Driver) failSong(unit resume.Unit, song *archive.Song, reason string) outcome {
	song.MarkFailed(reason)
	d.logger.Warn("song permanently failed",
		zap.Int("sid", int(song.ID)),
		zap.String("name", song.Name),
		zap.String("reason", reason),
	)
	d.reporter.Emit(progress.Event{
		Unit:   unit,
		Action: progress.ActionFailed,
		Name:   song.Name,
		Note:   reason,
	})
	return outcomeFailed
}

func (d *Driver) emitAdvanced(unit resume.Unit, name, stage string, bytes int64) {
	d.reporter.Emit(progress.Event{
		Unit:   unit,
		Action: progress.ActionAdvanced,
		Name:   name,
		Stage:  stage,
		Bytes:  bytes,
	})
}

func (d *Driver) emitDeferred(unit resume.Unit, name string, err error) {
	d.logger.Debug("unit deferred to a later pass",
		zap.String("unit", unit.Key()),
		zap.Error(err),
	)
	d.reporter.Emit(progress.Event{
		Unit:   unit,
		Action: progress.ActionDeferred,
		Name:   name,
		Note:   err.Error(),
	})
}
