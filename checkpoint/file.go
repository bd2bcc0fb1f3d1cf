package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thrasher-corp/blotter/log"
)

// NewFileStore returns a store writing into dir, creating it when missing
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) path(runID string) string {
	return filepath.Join(f.Dir, runID+".json")
}

// Save writes the state via a temporary file so a crash never leaves a
// partial checkpoint behind
func (f *FileStore) Save(_ context.Context, s *State) error {
	if err := validRunID(s.RunID); err != nil {
		return err
	}
	if err := WriteFile(f.path(s.RunID), s); err != nil {
		return err
	}
	log.Debugf(log.Checkpoint, "run %s saved to %s", s.RunID, f.path(s.RunID))
	return nil
}

// WriteFile encodes a checkpoint document to path, replacing any previous
// document only once the new one is fully written
func WriteFile(path string, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads the checkpoint of a run
func (f *FileStore) Load(_ context.Context, runID string) (*State, error) {
	if err := validRunID(runID); err != nil {
		return nil, err
	}
	return ReadFile(f.path(runID))
}

// ReadFile decodes a checkpoint document from any path
func ReadFile(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Close is a no-op for the file store
func (f *FileStore) Close() error {
	return nil
}
