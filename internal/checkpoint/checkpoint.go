// Package checkpoint implements the durable, atomic store for the
// crawl tree. The whole tree lives in one JSON document; saves go
// through a temp file and rename so a concurrent reader never observes
// a half-written checkpoint.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ccampell/lyricscrawler/internal/archive"
)

// File is a checkpoint store backed by a single JSON file on the local
// filesystem. Running two crawl drivers against the same file is
// unsupported; Acquire enforces that with a PID lock.
type File struct {
	path   string
	logger *zap.Logger
}

// New validates the checkpoint location and returns a store for it.
func New(path string, logger *zap.Logger) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create checkpoint dir %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{path: path, logger: logger}, nil
}

// Path returns the backing file location.
func (f *File) Path() string {
	return f.path
}

// Load deserializes the tree from the backing file. A missing file
// yields archive.ErrNoCheckpoint; anything undecodable yields
// archive.ErrCorruptCheckpoint.
func (f *File) Load() (*archive.Tree, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, archive.ErrNoCheckpoint
		}
		return nil, fmt.Errorf("read checkpoint %s: %w", f.path, err)
	}

	var tree archive.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", archive.ErrCorruptCheckpoint, f.path, err)
	}
	if tree.Artists == nil {
		return nil, fmt.Errorf("%w: %s is missing the artists collection", archive.ErrCorruptCheckpoint, f.path)
	}
	if err := validateTree(&tree); err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrCorruptCheckpoint, err)
	}

	f.logger.Debug("checkpoint loaded",
		zap.String("path", f.path),
		zap.Int("artists", tree.Artists.Len()),
	)
	return &tree, nil
}

// Save serializes the full tree and atomically replaces the previous
// checkpoint. The temp file is removed on any failure; failures are
// reported as archive.ErrPersistenceFailure.
func (f *File) Save(tree *archive.Tree) error {
	payload, err := json.MarshalIndent(tree, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: marshal tree: %v", archive.ErrPersistenceFailure, err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp in %s: %v", archive.ErrPersistenceFailure, dir, err)
	}
	tmpName := tmp.Name()

	if err := writeAndClose(tmp, payload); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write temp %s: %v", archive.ErrPersistenceFailure, tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", archive.ErrPersistenceFailure, f.path, err)
	}
	// The rename is only durable once the directory entry itself is on
	// disk.
	if err := syncDir(dir); err != nil {
		return fmt.Errorf("%w: sync %s: %v", archive.ErrPersistenceFailure, dir, err)
	}

	f.logger.Debug("checkpoint saved",
		zap.String("path", f.path),
		zap.Int("bytes", len(payload)),
	)
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return err
	}
	return d.Close()
}

func writeAndClose(file *os.File, payload []byte) error {
	if _, err := file.Write(payload); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func validateTree(tree *archive.Tree) error {
	for _, aid := range tree.Artists.Keys() {
		artist, _ := tree.Artists.Get(aid)
		if artist == nil {
			return fmt.Errorf("artist %d is null", int(aid))
		}
		if artist.Name == "" || artist.URL == "" {
			return fmt.Errorf("artist %d is missing required fields", int(aid))
		}
		if !artist.Stage.Valid() {
			return fmt.Errorf("artist %d has undefined stage", int(aid))
		}
		if artist.Albums == nil {
			return fmt.Errorf("artist %d is missing the albums collection", int(aid))
		}
		for _, alid := range artist.Albums.Keys() {
			album, _ := artist.Albums.Get(alid)
			if album == nil || album.Songs == nil {
				return fmt.Errorf("artist %d album %d is malformed", int(aid), int(alid))
			}
		}
	}
	return nil
}

var errLocked = errors.New("checkpoint is locked by another process")

// IsLocked reports whether err came from a lock held by a live process.
func IsLocked(err error) bool {
	return errors.Is(err, errLocked)
}
