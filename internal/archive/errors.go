package archive

import "errors"

// Error taxonomy. Entity-level failures (ErrNotFound, ErrTransient) are
// absorbed inside the crawl driver and converted into stage or removal
// decisions; only checkpoint I/O failures propagate to the top level.
var (
	// ErrNoCheckpoint indicates no checkpoint file exists yet.
	ErrNoCheckpoint = errors.New("checkpoint not found")
	// ErrCorruptCheckpoint indicates the checkpoint file exists but
	// cannot be decoded. Fatal at startup only.
	ErrCorruptCheckpoint = errors.New("corrupt checkpoint")
	// ErrPersistenceFailure indicates the checkpoint could not be
	// written. Fatal mid-run; the in-memory tree is preserved by the
	// caller until the save is retried.
	ErrPersistenceFailure = errors.New("checkpoint persistence failure")
	// ErrNotFound indicates a permanently missing source location
	// (404-class). The affected entity is removed or marked failed.
	ErrNotFound = errors.New("source location not found")
	// ErrTransient indicates a retryable fetch failure (timeout,
	// connection reset, 5xx). No state changes; the unit stays
	// eligible for a later pass.
	ErrTransient = errors.New("transient fetch error")
	// ErrUnusableName indicates an entity name that cannot be used as
	// a filesystem path. The entity is treated as unreachable.
	ErrUnusableName = errors.New("name unusable as path")
)
