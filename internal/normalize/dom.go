// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
	"github.com/daryllundy/chatgpt-exporter/internal/util"
)

// roleAttr tags message containers in the conversation page DOM.
const roleAttr = "data-message-author-role"

// =============================================================================
// DOM FALLBACK
// =============================================================================

// NormalizeDOM extracts a conversation from a snapshot of the live
// conversation page. It is the degraded-fidelity fallback used when
// the API payload is unreachable or yields no usable messages:
//
//   - paragraph, list and quote text is collapsed into one text part
//     per message
//   - each code block becomes a code part, language inferred from the
//     language-* class on the code element
//   - each rendered image becomes an image part keyed by whatever URL
//     the page resolved, which may be a transient blob: reference that
//     does not survive the session
//
// Like Normalize, it is total: unparseable markup yields a
// conversation with zero messages.
func NormalizeDOM(id string, snapshot []byte) model.Conversation {
	conv := model.Conversation{
		ID:       id,
		Messages: []model.Message{},
	}

	doc, err := html.Parse(bytes.NewReader(snapshot))
	if err != nil {
		return conv
	}

	conv.Title = documentTitle(doc)

	for _, container := range findMessageNodes(doc) {
		role := model.ParseRole(attrValue(container, roleAttr))
		if role == model.RoleSystem {
			continue
		}
		parts := extractDOMParts(container)
		if len(parts) == 0 {
			continue
		}
		conv.Messages = append(conv.Messages, model.Message{
			ID:    attrValue(container, "data-message-id"),
			Role:  role,
			Parts: parts,
		})
	}

	return conv
}

// findMessageNodes collects, in document order, every element carrying
// the author-role attribute.
func findMessageNodes(doc *html.Node) []*html.Node {
	var nodes []*html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attrValue(n, roleAttr) != "" {
			nodes = append(nodes, n)
			return false // do not descend into nested matches
		}
		return true
	})
	return nodes
}

// extractDOMParts walks one message container. Code blocks and images
// are emitted in document order; all remaining prose is collapsed into
// a single leading text part.
func extractDOMParts(container *html.Node) []model.ContentPart {
	var text strings.Builder
	var rest []model.ContentPart

	walk(container, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "pre":
			if code := findCodeChild(n); code != nil {
				body := textContent(code)
				if strings.TrimSpace(body) != "" {
					rest = append(rest, model.CodePart{
						Language: codeLanguage(code),
						Text:     strings.TrimRight(body, "\n"),
					})
				}
				return false
			}
			return true
		case "img":
			if src := attrValue(n, "src"); src != "" {
				rest = append(rest, model.ImagePart{
					AssetID:  src,
					MimeType: defaultImageMime,
				})
			}
			return false
		case "p", "li", "blockquote":
			body := util.CollapseWhitespace(textContent(n))
			if body != "" {
				if text.Len() > 0 {
					text.WriteString("\n\n")
				}
				text.WriteString(body)
			}
			return false
		}
		return true
	})

	var parts []model.ContentPart
	if text.Len() > 0 {
		parts = append(parts, model.TextPart{Text: text.String()})
	}
	return append(parts, rest...)
}

// =============================================================================
// DOM HELPERS
// =============================================================================

// walk visits nodes depth-first in document order. The visitor returns
// false to skip a node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

func findCodeChild(pre *html.Node) *html.Node {
	var code *html.Node
	walk(pre, func(n *html.Node) bool {
		if code != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "code" {
			code = n
			return false
		}
		return true
	})
	return code
}

// codeLanguage infers the language from a language-* class, the
// convention the page's highlighter uses.
func codeLanguage(code *html.Node) string {
	for _, class := range strings.Fields(attrValue(code, "class")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok {
			return lang
		}
	}
	return ""
}

func documentTitle(doc *html.Node) string {
	var title string
	walk(doc, func(n *html.Node) bool {
		if title != "" {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = strings.TrimSpace(textContent(n))
			return false
		}
		return true
	})
	// The page suffixes the conversation title with the product name.
	title = strings.TrimSuffix(title, " | ChatGPT")
	return title
}
