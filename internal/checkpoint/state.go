// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package checkpoint

// SchemaVersion guards against reading checkpoints written by an
// incompatible build. A mismatched version is treated as no checkpoint
// at all.
const SchemaVersion = 1

// Status is the lifecycle state of a persisted run.
type Status string

const (
	StatusStarted    Status = "started"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// =============================================================================
// STATE
// =============================================================================

// State is the persisted checkpoint blob. AllIDs is fixed at discovery
// time so a resumed run has the same total even when enumeration
// cannot be repeated identically; CompletedIDs grows by exactly one
// per successfully exported item.
type State struct {
	SchemaVersion int      `json:"schema_version"`
	RunID         string   `json:"run_id"`
	Scope         string   `json:"scope"`
	Formats       []string `json:"formats"`
	Status        Status   `json:"status"`
	AllIDs        []string `json:"all_ids"`
	CompletedIDs  []string `json:"completed_ids"`
}

// IsCompleted reports whether an id was already exported.
func (s *State) IsCompleted(id string) bool {
	for _, done := range s.CompletedIDs {
		if done == id {
			return true
		}
	}
	return false
}

// MarkCompleted records one finished item. Idempotent.
func (s *State) MarkCompleted(id string) {
	if !s.IsCompleted(id) {
		s.CompletedIDs = append(s.CompletedIDs, id)
	}
}

// Resumable reports whether this checkpoint represents an interrupted
// run worth resuming.
func (s *State) Resumable() bool {
	return s.Status == StatusStarted || s.Status == StatusInProgress
}
