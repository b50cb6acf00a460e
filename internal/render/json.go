// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

// =============================================================================
// JSON RENDERER
// =============================================================================

// JSONRenderer emits a fixed, pretty-printed object shape. Each
// message's parts are flattened into a single content string so the
// output diffs cleanly and round-trips into other tooling.
type JSONRenderer struct{}

// jsonConversation is the stable output shape. Field order matters
// for diffability; do not reorder.
type jsonConversation struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	CreateTime  *int64        `json:"create_time"`
	UpdateTime  *int64        `json:"update_time"`
	Model       string        `json:"model,omitempty"`
	CustomGroup string        `json:"custom_group,omitempty"`
	Messages    []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	CreateTime *int64 `json:"create_time"`
	Content    string `json:"content"`
}

// Render implements Renderer.
func (r *JSONRenderer) Render(conv *model.Conversation, _ *Aux) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}

	out := jsonConversation{
		ID:          conv.ID,
		Title:       conv.Title,
		CreateTime:  conv.CreateTime,
		UpdateTime:  conv.UpdateTime,
		Model:       conv.Model,
		CustomGroup: conv.CustomGroup,
		Messages:    make([]jsonMessage, 0, len(conv.Messages)),
	}

	for _, msg := range conv.Messages {
		out.Messages = append(out.Messages, jsonMessage{
			ID:         msg.ID,
			Role:       string(msg.Role),
			CreateTime: msg.CreateTime,
			Content:    flattenParts(msg.Parts),
		})
	}

	return json.MarshalIndent(out, "", "  ")
}

// FileExtension implements Renderer.
func (r *JSONRenderer) FileExtension() string { return ".json" }

// MimeType implements Renderer.
func (r *JSONRenderer) MimeType() string { return "application/json" }

// flattenParts joins a message's parts into one string: text verbatim,
// code as a fenced block, images as a bracketed asset reference.
// Parts are separated by a blank line.
func flattenParts(parts []model.ContentPart) string {
	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case model.TextPart:
			chunks = append(chunks, p.Text)
		case model.CodePart:
			chunks = append(chunks, fencedCode(p))
		case model.ImagePart:
			chunks = append(chunks, fmt.Sprintf("[Image: %s]", p.AssetID))
		default:
			// Closed union; an unknown kind renders as nothing.
		}
	}
	return strings.Join(chunks, "\n\n")
}
