// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/daryllundy/chatgpt-exporter/internal/util"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the external key-value dependency holding the checkpoint
// blob. Get returns (nil, nil) when no usable checkpoint exists.
type Store interface {
	Get() (*State, error)
	Set(state *State) error
	Remove() error
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore persists the checkpoint as one JSON file, written
// atomically so a crash never leaves a torn blob.
type FileStore struct {
	path string
}

// NewFileStore creates a store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the conventional checkpoint location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chatgpt-exporter", "checkpoint.json"), nil
}

// Get implements Store. Unreadable, unparseable or version-mismatched
// checkpoints read as absent: resuming from a blob this build does not
// understand would be worse than starting over.
func (s *FileStore) Get() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, nil
	}
	if state.SchemaVersion != SchemaVersion {
		return nil, nil
	}
	return &state, nil
}

// Set implements Store.
func (s *FileStore) Set(state *State) error {
	state.SchemaVersion = SchemaVersion
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Remove implements Store. Removing an absent checkpoint is not an
// error.
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	state *State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get implements Store.
func (m *MemoryStore) Get() (*State, error) {
	if m.state == nil {
		return nil, nil
	}
	copied := *m.state
	copied.AllIDs = append([]string(nil), m.state.AllIDs...)
	copied.CompletedIDs = append([]string(nil), m.state.CompletedIDs...)
	return &copied, nil
}

// Set implements Store.
func (m *MemoryStore) Set(state *State) error {
	state.SchemaVersion = SchemaVersion
	copied := *state
	copied.AllIDs = append([]string(nil), state.AllIDs...)
	copied.CompletedIDs = append([]string(nil), state.CompletedIDs...)
	m.state = &copied
	return nil
}

// Remove implements Store.
func (m *MemoryStore) Remove() error {
	m.state = nil
	return nil
}
