// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	htmlformatter "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

// =============================================================================
// HTML RENDERER
// =============================================================================

// HTMLRenderer exports a self-contained HTML document: inline styles,
// embedded images, no external fetches.
//
// SECURITY: every user-controlled string (title, message text, code,
// asset ids) is HTML-escaped before interpolation. Conversation
// content is arbitrary user/model text and must be treated as
// attacker-influenced.
type HTMLRenderer struct{}

// Render implements Renderer.
func (r *HTMLRenderer) Render(conv *model.Conversation, aux *Aux) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(conv.Title)))
	sb.WriteString(documentCSS)
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString(r.renderHeader(conv))

	sb.WriteString("        <main class=\"conversation\">\n")
	for i := range conv.Messages {
		sb.WriteString(r.renderMessage(&conv.Messages[i], aux))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension implements Renderer.
func (r *HTMLRenderer) FileExtension() string { return ".html" }

// MimeType implements Renderer.
func (r *HTMLRenderer) MimeType() string { return "text/html" }

// =============================================================================
// DOCUMENT SECTIONS
// =============================================================================

func (r *HTMLRenderer) renderHeader(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(conv.Title)))
	sb.WriteString("            <div class=\"metadata\">\n")
	if conv.Model != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n", html.EscapeString(conv.Model)))
	}
	if conv.CreateTime != nil {
		created := time.Unix(*conv.CreateTime, 0).UTC().Format("2006-01-02 15:04:05")
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", created))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(conv.Messages)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (r *HTMLRenderer) renderMessage(msg *model.Message, aux *Aux) string {
	var sb strings.Builder

	roleClass := strings.ToLower(string(msg.Role))
	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", html.EscapeString(roleClass)))
	sb.WriteString(fmt.Sprintf("                <div class=\"message-header\">%s</div>\n", html.EscapeString(roleLabel(msg.Role))))
	sb.WriteString("                <div class=\"message-content\">\n")

	for _, part := range msg.Parts {
		switch p := part.(type) {
		case model.TextPart:
			sb.WriteString(renderTextHTML(p.Text))
		case model.CodePart:
			sb.WriteString(renderCodeHTML(p))
		case model.ImagePart:
			sb.WriteString(renderImageHTML(p, aux))
		default:
			// Closed union; unknown kinds render nothing.
		}
	}

	sb.WriteString("                </div>\n")
	sb.WriteString("            </div>\n")
	return sb.String()
}

// renderTextHTML emits an escaped paragraph preserving line breaks.
func renderTextHTML(text string) string {
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
	return fmt.Sprintf("                    <p>%s</p>\n", escaped)
}

// renderCodeHTML emits a highlighted code block when chroma knows the
// language, and a plain escaped <pre><code> otherwise. The language
// class is kept either way for client-side tooling.
func renderCodeHTML(code model.CodePart) string {
	if highlighted, ok := highlightCode(code); ok {
		return "                    " + highlighted + "\n"
	}
	return fmt.Sprintf("                    <pre><code class=\"language-%s\">%s</code></pre>\n",
		html.EscapeString(code.Language),
		html.EscapeString(code.Text))
}

// renderImageHTML emits an <img> with an embedded data URI, or a
// textual placeholder when the asset was not resolved.
func renderImageHTML(img model.ImagePart, aux *Aux) string {
	if aux != nil {
		if dataURI, ok := aux.ImageData[img.AssetID]; ok {
			size := ""
			if img.Width > 0 && img.Height > 0 {
				size = fmt.Sprintf(" width=\"%d\" height=\"%d\"", img.Width, img.Height)
			}
			return fmt.Sprintf("                    <img src=\"%s\"%s alt=\"attached image\">\n",
				html.EscapeString(dataURI), size)
		}
	}
	return fmt.Sprintf("                    <p class=\"image-placeholder\">[image unavailable: %s]</p>\n",
		html.EscapeString(img.AssetID))
}

// highlightCode runs chroma with inline styles so the document stays
// self-contained. Returns false when no lexer matches or tokenising
// fails; the caller falls back to plain escaped output.
func highlightCode(code model.CodePart) (string, bool) {
	lexer := lexers.Get(code.Language)
	if lexer == nil {
		return "", false
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get("monokai")
	if style == nil {
		style = chromastyles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code.Text)
	if err != nil {
		return "", false
	}

	var buf bytes.Buffer
	formatter := htmlformatter.New(htmlformatter.WithClasses(false))
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", false
	}
	return buf.String(), true
}

// documentCSS is the embedded stylesheet. Kept minimal and inline so
// the exported file has no external dependencies.
const documentCSS = `    <style>
        body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
               background: #f4f4f5; color: #18181b; line-height: 1.6; }
        .container { max-width: 860px; margin: 0 auto; padding: 24px 16px; }
        .header h1 { margin: 0 0 8px; font-size: 1.6em; }
        .metadata { color: #71717a; font-size: 0.9em; }
        .meta-item { margin-right: 16px; }
        .message { margin: 16px 0; padding: 12px 16px; border-radius: 8px; background: #fff;
                   border: 1px solid #e4e4e7; }
        .user-message { background: #eff6ff; border-color: #bfdbfe; }
        .message-header { font-weight: 600; margin-bottom: 8px; }
        .message-content p { margin: 0 0 8px; white-space: normal; word-wrap: break-word; }
        .message-content img { max-width: 100%; height: auto; border-radius: 4px; }
        .message-content pre { overflow-x: auto; padding: 12px; border-radius: 6px; }
        .image-placeholder { color: #a1a1aa; font-style: italic; }
    </style>
`
