// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

// =============================================================================
// RENDERER INTERFACE
// =============================================================================

// Renderer converts a conversation to one output format.
type Renderer interface {
	// Render produces the artifact bytes. It must be pure and
	// deterministic; the only accepted failure is a nil conversation.
	Render(conv *model.Conversation, aux *Aux) ([]byte, error)

	// FileExtension returns the artifact extension (e.g. ".md").
	FileExtension() string

	// MimeType returns the MIME type of the format.
	MimeType() string
}

// Aux carries the per-batch asset maps renderers join against.
// Both maps are keyed by the opaque asset id from ImagePart.
type Aux struct {
	// ImageFiles maps asset ids to archive-relative file names, for
	// formats that reference images by path (Markdown).
	ImageFiles map[string]string

	// ImageData maps asset ids to data: URIs, for the self-contained
	// HTML format.
	ImageData map[string]string
}

// ForFormat returns the renderer for a format name.
func ForFormat(format string) (Renderer, bool) {
	switch format {
	case "json":
		return &JSONRenderer{}, true
	case "markdown", "md":
		return &MarkdownRenderer{}, true
	case "html":
		return &HTMLRenderer{}, true
	default:
		return nil, false
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// roleLabel returns the fixed display label for a role. Unrecognized
// roles fall back to the capitalized role name.
func roleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "🧑 User"
	case model.RoleAssistant:
		return "🤖 Assistant"
	case model.RoleTool:
		return "🔧 Tool"
	case model.RoleSystem:
		return "⚙️ System"
	default:
		return capitalize(string(role))
	}
}

func capitalize(s string) string {
	if s == "" {
		return "Unknown"
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

// fencedCode renders a code part as a fenced block. The language tag
// may be empty.
func fencedCode(code model.CodePart) string {
	var sb strings.Builder
	sb.WriteString("```")
	sb.WriteString(code.Language)
	sb.WriteString("\n")
	sb.WriteString(strings.TrimRight(code.Text, "\n"))
	sb.WriteString("\n```")
	return sb.String()
}
