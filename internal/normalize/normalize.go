// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import (
	"encoding/json"
	"sort"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

// =============================================================================
// RAW PAYLOAD TYPES
// =============================================================================

// rawPayload mirrors the API conversation payload. Every field is
// optional; the normalizer defaults rather than failing. Nothing
// outside this package ever sees these types - raw untyped data stops
// at this boundary.
type rawPayload struct {
	ID               string             `json:"id"`
	ConversationID   string             `json:"conversation_id"`
	Title            string             `json:"title"`
	CreateTime       any                `json:"create_time"`
	UpdateTime       any                `json:"update_time"`
	DefaultModelSlug string             `json:"default_model_slug"`
	Mapping          map[string]rawNode `json:"mapping"`
}

type rawNode struct {
	ID       string      `json:"id"`
	Parent   string      `json:"parent"`
	Children []string    `json:"children"`
	Message  *rawMessage `json:"message"`
}

type rawMessage struct {
	ID     string `json:"id"`
	Author struct {
		Role string `json:"role"`
	} `json:"author"`
	CreateTime any         `json:"create_time"`
	Content    rawContent  `json:"content"`
	Metadata   rawMetadata `json:"metadata"`
}

type rawMetadata struct {
	ModelSlug string `json:"model_slug"`
	// Hidden marks internal prompt scaffolding the UI never shows.
	Hidden bool `json:"is_visually_hidden_from_conversation"`
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize converts a raw API payload into a canonical Conversation.
// It is a total function: unparseable input yields a conversation with
// zero messages (the coordinator treats that as a signal to try the
// DOM fallback). The result has NOT been validated yet; callers run
// Validate exactly once before rendering.
func Normalize(raw []byte) model.Conversation {
	var payload rawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return model.Conversation{Messages: []model.Message{}}
	}

	conv := model.Conversation{
		ID:         payload.ConversationID,
		Title:      payload.Title,
		CreateTime: model.CoerceTime(payload.CreateTime),
		UpdateTime: model.CoerceTime(payload.UpdateTime),
		Messages:   []model.Message{},
	}
	if conv.ID == "" {
		conv.ID = payload.ID
	}

	path := linearPath(payload.Mapping)
	for _, node := range path {
		msg, ok := deriveMessage(node)
		if ok {
			conv.Messages = append(conv.Messages, msg)
		}
	}

	conv.Model = detectModel(payload.DefaultModelSlug, path)
	return conv
}

// linearPath walks the node forest and returns the single chronological
// path the user currently sees. Roots are nodes whose parent is absent
// from the mapping; from each root only the LAST child is followed at
// every branch point (the most recent edit or regeneration). A
// visited-set guards against cycles and duplicate ids in malformed
// payloads. The walk is a pure function of the mapping - no shared
// traversal state.
func linearPath(mapping map[string]rawNode) []rawNode {
	if len(mapping) == 0 {
		return nil
	}

	var roots []string
	for id, node := range mapping {
		if node.Parent == "" {
			roots = append(roots, id)
			continue
		}
		if _, ok := mapping[node.Parent]; !ok {
			roots = append(roots, id)
		}
	}
	// Map iteration order is random; sort for a deterministic walk when
	// a malformed payload has multiple roots.
	sort.Strings(roots)

	visited := make(map[string]bool)
	var path []rawNode
	for _, root := range roots {
		id := root
		for id != "" && !visited[id] {
			visited[id] = true
			node, ok := mapping[id]
			if !ok {
				break
			}
			path = append(path, node)

			id = ""
			for i := len(node.Children) - 1; i >= 0; i-- {
				child := node.Children[i]
				if _, ok := mapping[child]; ok && !visited[child] {
					id = child
					break
				}
			}
		}
	}
	return path
}

// deriveMessage extracts a message from a visited node. The second
// return is false when the node contributes nothing: no message,
// system-role scaffolding, hidden messages, or content that yields
// zero parts.
func deriveMessage(node rawNode) (model.Message, bool) {
	if node.Message == nil {
		return model.Message{}, false
	}
	raw := node.Message

	role := model.ParseRole(raw.Author.Role)
	if role == model.RoleSystem || raw.Metadata.Hidden {
		return model.Message{}, false
	}

	parts := extractParts(raw.Content)
	if len(parts) == 0 {
		return model.Message{}, false
	}

	id := raw.ID
	if id == "" {
		id = node.ID
	}

	return model.Message{
		ID:         id,
		Role:       role,
		CreateTime: model.CoerceTime(raw.CreateTime),
		Parts:      parts,
	}, true
}

// detectModel prefers the payload's explicit model slug; otherwise it
// scans the path most-recent-first for the first message carrying a
// model annotation.
func detectModel(explicit string, path []rawNode) string {
	if explicit != "" {
		return explicit
	}
	for i := len(path) - 1; i >= 0; i-- {
		if msg := path[i].Message; msg != nil && msg.Metadata.ModelSlug != "" {
			return msg.Metadata.ModelSlug
		}
	}
	return ""
}
