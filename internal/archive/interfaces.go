package archive

import (
	"context"
	"time"
)

// ListingEntry is one name/URL pair extracted from a listing page.
type ListingEntry struct {
	Name string
	URL  string
}

// Fetcher retrieves parsed content from the source site. The core never
// inspects markup; implementations classify failures as ErrNotFound
// (permanent) or ErrTransient (retryable) via errors.Is.
type Fetcher interface {
	// FetchIndex retrieves the artist entries from one index page.
	FetchIndex(ctx context.Context, url string) ([]ListingEntry, error)
	// FetchListing retrieves the child entries (albums or songs) found
	// at an artist or album page.
	FetchListing(ctx context.Context, url string) ([]ListingEntry, error)
	// FetchText retrieves the plaintext lyric body at a song page.
	FetchText(ctx context.Context, url string) (string, error)
}

// Transcriber runs the downstream cleaning and phonetic transcription
// stage over raw lyric text.
type Transcriber interface {
	Transcribe(ctx context.Context, raw string) (Transcription, error)
}

// Store is the filesystem contract for scraped artifacts. EnsureDir is
// idempotent; already-exists is success. Path construction fails with
// ErrUnusableName when an entity name cannot form a valid path.
type Store interface {
	ArtistPath(artist string) (string, error)
	AlbumPath(artist, album string) (string, error)
	SongPath(artist, album, song string) (string, error)
	EnsureDir(path string) error
	WriteSongText(dir, text string) error
	WriteTranscription(dir string, t Transcription) error
}

// CheckpointStore persists the crawl tree durably and atomically.
type CheckpointStore interface {
	// Load deserializes the tree, failing with ErrNoCheckpoint if no
	// file exists or ErrCorruptCheckpoint if it cannot be decoded.
	Load() (*Tree, error)
	// Save atomically replaces the checkpoint with the given tree,
	// failing with ErrPersistenceFailure on I/O errors.
	Save(tree *Tree) error
}

// Clock returns the current time (swappable for tests).
type Clock interface {
	Now() time.Time
}

// Hasher computes digests of scraped content for integrity checks.
type Hasher interface {
	Hash(data []byte) (string, error)
}
