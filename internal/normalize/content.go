// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import (
	"encoding/json"
	"strings"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

// defaultImageMime is assumed for asset-pointer images; the payload
// does not carry a mime type and the UI serves PNG.
const defaultImageMime = "image/png"

// =============================================================================
// RAW CONTENT
// =============================================================================

// rawContent is the polymorphic content field of a message. Modern
// payloads carry an object with a content_type discriminator; legacy
// payloads carry a bare string.
type rawContent struct {
	ContentType string
	Text        string
	Language    string
	Parts       []json.RawMessage
}

// UnmarshalJSON accepts both the object form and the legacy string
// form. The legacy form is mapped to the empty content type, which
// extractParts treats as a single text part.
func (c *rawContent) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		c.Text = legacy
		return nil
	}

	var obj struct {
		ContentType string            `json:"content_type"`
		Text        string            `json:"text"`
		Language    string            `json:"language"`
		Parts       []json.RawMessage `json:"parts"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		// Unrecognized content shapes yield zero parts, not errors.
		return nil
	}
	c.ContentType = obj.ContentType
	c.Text = obj.Text
	c.Language = obj.Language
	c.Parts = obj.Parts
	return nil
}

// rawMultimodalEntry is one entry of a multimodal_text parts list:
// either a bare string or an image asset pointer object.
type rawMultimodalEntry struct {
	ContentType  string `json:"content_type"`
	AssetPointer string `json:"asset_pointer"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// =============================================================================
// PART EXTRACTION
// =============================================================================

// extractParts dispatches on the content_type discriminator and
// returns the content parts a message contributes. Unknown
// discriminators, browsing snippets and blank content yield zero parts
// silently; the caller drops the whole message in that case.
func extractParts(content rawContent) []model.ContentPart {
	switch content.ContentType {
	case "":
		// Legacy plain-string content.
		return textParts(content.Text)

	case "text":
		var sb strings.Builder
		for _, raw := range content.Parts {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				sb.WriteString(s)
			}
		}
		return textParts(sb.String())

	case "code":
		if strings.TrimSpace(content.Text) == "" {
			return nil
		}
		return []model.ContentPart{model.CodePart{
			Language: content.Language,
			Text:     content.Text,
		}}

	case "multimodal_text":
		return multimodalParts(content.Parts)

	case "tether_quote", "tether_browsing_display", "tether_browsing_code":
		// Browsing/navigation snippets are UI chrome, not business
		// content.
		return nil

	default:
		return nil
	}
}

// multimodalParts iterates multimodal sub-parts, emitting a text part
// for string entries and an image part for asset pointers.
func multimodalParts(raws []json.RawMessage) []model.ContentPart {
	var parts []model.ContentPart
	for _, raw := range raws {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if strings.TrimSpace(s) != "" {
				parts = append(parts, model.TextPart{Text: s})
			}
			continue
		}

		var entry rawMultimodalEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.ContentType == "image_asset_pointer" && entry.AssetPointer != "" {
			parts = append(parts, model.ImagePart{
				AssetID:  entry.AssetPointer,
				Width:    entry.Width,
				Height:   entry.Height,
				MimeType: defaultImageMime,
			})
		}
	}
	return parts
}

// textParts returns one text part, or none when the text is blank
// after trimming.
func textParts(text string) []model.ContentPart {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []model.ContentPart{model.TextPart{Text: text}}
}
