// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

// emptyMessagePlaceholder keeps a 1:1 visual correspondence between
// the rendered document and the message list: a message with nothing
// renderable still occupies a line.
const emptyMessagePlaceholder = "*(empty message)*"

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer exports a conversation as a Markdown document:
// conversation title as an H1, one H2 per message labeled by role.
type MarkdownRenderer struct{}

// Render implements Renderer.
func (r *MarkdownRenderer) Render(conv *model.Conversation, aux *Aux) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}

	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(escapeMarkdownHeading(conv.Title))
	sb.WriteString("\n\n")

	if meta := r.metadataLine(conv); meta != "" {
		sb.WriteString(meta)
		sb.WriteString("\n\n")
	}

	for _, msg := range conv.Messages {
		sb.WriteString("## ")
		sb.WriteString(roleLabel(msg.Role))
		sb.WriteString("\n\n")

		if len(msg.Parts) == 0 {
			sb.WriteString(emptyMessagePlaceholder)
			sb.WriteString("\n\n")
			continue
		}

		for _, part := range msg.Parts {
			switch p := part.(type) {
			case model.TextPart:
				if strings.TrimSpace(p.Text) == "" {
					sb.WriteString(emptyMessagePlaceholder)
				} else {
					sb.WriteString(strings.TrimRight(p.Text, "\n"))
				}
			case model.CodePart:
				sb.WriteString(fencedCode(p))
			case model.ImagePart:
				sb.WriteString(fmt.Sprintf("![Image](%s)", imageRef(p.AssetID, aux)))
			default:
				continue
			}
			sb.WriteString("\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension implements Renderer.
func (r *MarkdownRenderer) FileExtension() string { return ".md" }

// MimeType implements Renderer.
func (r *MarkdownRenderer) MimeType() string { return "text/markdown" }

// metadataLine emits a single italic line of conversation metadata.
func (r *MarkdownRenderer) metadataLine(conv *model.Conversation) string {
	var fields []string
	if conv.Model != "" {
		fields = append(fields, "Model: "+conv.Model)
	}
	if conv.CreateTime != nil {
		fields = append(fields, "Created: "+time.Unix(*conv.CreateTime, 0).UTC().Format("2006-01-02 15:04:05"))
	}
	fields = append(fields, fmt.Sprintf("Messages: %d", len(conv.Messages)))
	return "*" + strings.Join(fields, " · ") + "*"
}

// imageRef resolves the relative file name for an asset, falling back
// to "<assetID>.png" when the packager could not resolve the bytes.
func imageRef(assetID string, aux *Aux) string {
	if aux != nil {
		if name, ok := aux.ImageFiles[assetID]; ok {
			return name
		}
	}
	return assetID + ".png"
}

// escapeMarkdownHeading escapes characters that would break formatting
// in a heading. Body text is deliberately left verbatim: assistant
// output is already Markdown.
func escapeMarkdownHeading(s string) string {
	replacer := strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
		"\n", " ",
	)
	return replacer.Replace(s)
}
