// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// ROLES
// =============================================================================

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
	RoleUnknown   Role = "unknown"
)

// ParseRole maps an author field from raw source data onto a Role.
// Unrecognized values map to RoleUnknown rather than erroring; upstream
// data is not trusted.
func ParseRole(s string) Role {
	switch s {
	case "user":
		return RoleUser
	case "assistant":
		return RoleAssistant
	case "system":
		return RoleSystem
	case "tool":
		return RoleTool
	default:
		return RoleUnknown
	}
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is one turn of a conversation. A message with zero parts is
// invalid and is dropped during validation, never rendered.
type Message struct {
	ID         string `json:"id"`
	Role       Role   `json:"role"`
	CreateTime *int64 `json:"create_time"`

	// Parts is an ordered, non-empty sequence of content parts.
	Parts []ContentPart `json:"parts"`
}

// =============================================================================
// CONTENT PARTS
// =============================================================================

// ContentPart is a closed union: TextPart, CodePart or ImagePart.
// Renderers match exhaustively over the three kinds with a deliberate
// default arm that emits nothing.
type ContentPart interface {
	isContentPart()
}

// TextPart is plain prose content.
type TextPart struct {
	Text string `json:"text"`
}

// CodePart is a code block with an optional language tag.
type CodePart struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// ImagePart references image bytes by an opaque asset id. The id
// scheme (file-service://, data:, blob:, http(s)://) determines how the
// resolver fetches bytes; the id is the join key between a part and its
// resolved bytes in every renderer.
type ImagePart struct {
	AssetID  string `json:"asset_id"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	MimeType string `json:"mime_type"`
}

func (TextPart) isContentPart()  {}
func (CodePart) isContentPart()  {}
func (ImagePart) isContentPart() {}
