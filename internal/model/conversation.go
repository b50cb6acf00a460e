// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONVERSATION
// =============================================================================

// DefaultTitle is substituted when a conversation has no usable title.
const DefaultTitle = "Untitled Chat"

// Conversation is the canonical normalized record of one chat session.
// All renderers consume exactly this shape regardless of whether the
// source was an API payload or a DOM snapshot.
type Conversation struct {
	// ID is non-empty after validation; a synthetic id is substituted
	// for malformed upstream data.
	ID    string `json:"id"`
	Title string `json:"title"`

	// CreateTime and UpdateTime are Unix seconds; nil when the source
	// carried no usable timestamp.
	CreateTime *int64 `json:"create_time"`
	UpdateTime *int64 `json:"update_time"`

	// Model is the model slug, when detectable.
	Model string `json:"model,omitempty"`

	// CustomGroup names the sub-collection (e.g. a custom GPT) this
	// conversation belongs to. Empty means the default group.
	CustomGroup string `json:"custom_group,omitempty"`

	// Messages in chronological order. Never nil after validation;
	// insertion order is significant.
	Messages []Message `json:"messages"`
}

// AssetIDs returns every image asset id referenced by the conversation,
// in message order, deduplicated. The resolver and the packager both
// iterate this set.
func (c *Conversation) AssetIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, msg := range c.Messages {
		for _, part := range msg.Parts {
			img, ok := part.(ImagePart)
			if !ok || img.AssetID == "" {
				continue
			}
			if !seen[img.AssetID] {
				seen[img.AssetID] = true
				ids = append(ids, img.AssetID)
			}
		}
	}
	return ids
}

// IsEmpty reports whether the conversation has no renderable messages.
// Empty conversations are excluded from a batch before packaging.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}
