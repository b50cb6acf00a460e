// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

func sampleConversation() *model.Conversation {
	ct := int64(1714000000)
	return &model.Conversation{
		ID:         "conv-1",
		Title:      "Sample & <Chat>",
		CreateTime: &ct,
		Model:      "gpt-4o",
		Messages: []model.Message{
			{
				ID:   "m1",
				Role: model.RoleUser,
				Parts: []model.ContentPart{
					model.TextPart{Text: "Write a print\nstatement"},
				},
			},
			{
				ID:   "m2",
				Role: model.RoleAssistant,
				Parts: []model.ContentPart{
					model.CodePart{Language: "python", Text: "print(1)"},
					model.ImagePart{AssetID: "file-service://img-1", Width: 10, Height: 20, MimeType: "image/png"},
				},
			},
		},
	}
}

func sampleAux() *Aux {
	return &Aux{
		ImageFiles: map[string]string{"file-service://img-1": "images/img-1.png"},
		ImageData:  map[string]string{"file-service://img-1": "data:image/png;base64,aGk="},
	}
}

// =============================================================================
// SHARED CONTRACT TESTS
// =============================================================================

func TestRenderers_Pure(t *testing.T) {
	conv := sampleConversation()
	aux := sampleAux()

	for _, format := range []string{"json", "markdown", "html"} {
		r, ok := ForFormat(format)
		if !ok {
			t.Fatalf("no renderer for %q", format)
		}
		first, err := r.Render(conv, aux)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		second, err := r.Render(conv, aux)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("%s renderer is not deterministic", format)
		}
	}
}

func TestRenderers_NilConversation(t *testing.T) {
	for _, format := range []string{"json", "markdown", "html"} {
		r, _ := ForFormat(format)
		if _, err := r.Render(nil, nil); err == nil {
			t.Errorf("%s: expected error for nil conversation", format)
		}
	}
}

func TestForFormat_Unknown(t *testing.T) {
	if _, ok := ForFormat("pdf"); ok {
		t.Error("pdf must not resolve to a renderer")
	}
}

// =============================================================================
// JSON RENDERER TESTS
// =============================================================================

func TestJSON_Shape(t *testing.T) {
	out, err := (&JSONRenderer{}).Render(sampleConversation(), nil)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["id"] != "conv-1" || decoded["title"] != "Sample & <Chat>" {
		t.Errorf("unexpected identity fields: %v", decoded)
	}

	messages := decoded["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("got %d messages", len(messages))
	}
	content := messages[1].(map[string]any)["content"].(string)
	if !strings.Contains(content, "```python\nprint(1)\n```") {
		t.Errorf("code part not flattened as fenced block: %q", content)
	}
	if !strings.Contains(content, "[Image: file-service://img-1]") {
		t.Errorf("image part not flattened as placeholder: %q", content)
	}
	if !strings.Contains(content, "```\n\n[Image") {
		t.Errorf("parts not joined with blank line: %q", content)
	}

	// Pretty-printed with 2-space indent.
	if !strings.Contains(string(out), "\n  \"id\"") {
		t.Error("output not indented with two spaces")
	}
}

// =============================================================================
// MARKDOWN RENDERER TESTS
// =============================================================================

func TestMarkdown_Structure(t *testing.T) {
	out, err := (&MarkdownRenderer{}).Render(sampleConversation(), sampleAux())
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)

	if !strings.HasPrefix(md, "# Sample & <Chat>\n") {
		t.Errorf("missing H1 title: %q", md[:40])
	}
	if !strings.Contains(md, "## 🧑 User") || !strings.Contains(md, "## 🤖 Assistant") {
		t.Error("missing role headings")
	}
	if !strings.Contains(md, "```python\nprint(1)\n```") {
		t.Error("code part not rendered as tagged fence")
	}
	if !strings.Contains(md, "![Image](images/img-1.png)") {
		t.Error("image not referenced via aux map")
	}
}

func TestMarkdown_ImageFallback(t *testing.T) {
	out, _ := (&MarkdownRenderer{}).Render(sampleConversation(), nil)
	if !strings.Contains(string(out), "![Image](file-service://img-1.png)") {
		t.Error("unmapped asset must fall back to {assetId}.png")
	}
}

func TestMarkdown_EmptyMessagePlaceholder(t *testing.T) {
	conv := &model.Conversation{
		ID:    "c",
		Title: "t",
		Messages: []model.Message{
			{Role: model.RoleUser},
		},
	}
	out, _ := (&MarkdownRenderer{}).Render(conv, nil)
	if !strings.Contains(string(out), emptyMessagePlaceholder) {
		t.Error("empty message must render a placeholder line, not vanish")
	}
}

func TestMarkdown_UnknownRoleCapitalized(t *testing.T) {
	conv := &model.Conversation{
		ID:    "c",
		Title: "t",
		Messages: []model.Message{
			{Role: model.Role("critic"), Parts: []model.ContentPart{model.TextPart{Text: "x"}}},
		},
	}
	out, _ := (&MarkdownRenderer{}).Render(conv, nil)
	if !strings.Contains(string(out), "## Critic") {
		t.Error("unknown role must fall back to capitalized name")
	}
}

// =============================================================================
// HTML RENDERER TESTS
// =============================================================================

func TestHTML_EscapesUserContent(t *testing.T) {
	conv := &model.Conversation{
		ID:    "c",
		Title: `<script>alert("xss")</script>`,
		Messages: []model.Message{
			{Role: model.RoleUser, Parts: []model.ContentPart{
				model.TextPart{Text: "a < b && c > d"},
			}},
		},
	}

	out, err := (&HTMLRenderer{}).Render(conv, nil)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)

	if strings.Contains(doc, "<script>alert") {
		t.Fatal("unescaped title reached the document")
	}
	if !strings.Contains(doc, "&lt;script&gt;") {
		t.Error("title not escaped")
	}
	if !strings.Contains(doc, "a &lt; b &amp;&amp; c &gt; d") {
		t.Error("message text not escaped")
	}
}

func TestHTML_ImageDataURI(t *testing.T) {
	out, _ := (&HTMLRenderer{}).Render(sampleConversation(), sampleAux())
	if !strings.Contains(string(out), `src="data:image/png;base64,aGk="`) {
		t.Error("resolved image must embed the data URI")
	}
}

func TestHTML_ImagePlaceholderWhenUnresolved(t *testing.T) {
	out, _ := (&HTMLRenderer{}).Render(sampleConversation(), nil)
	if !strings.Contains(string(out), "[image unavailable: file-service://img-1]") {
		t.Error("unresolved image must render a textual placeholder")
	}
}

func TestHTML_SelfContained(t *testing.T) {
	out, _ := (&HTMLRenderer{}).Render(sampleConversation(), sampleAux())
	doc := string(out)
	for _, needle := range []string{"<link ", "src=\"http", "href=\"http"} {
		if strings.Contains(doc, needle) {
			t.Errorf("document references external resource: %s", needle)
		}
	}
}

func TestHTML_LineBreaksPreserved(t *testing.T) {
	out, _ := (&HTMLRenderer{}).Render(sampleConversation(), sampleAux())
	if !strings.Contains(string(out), "Write a print<br>\nstatement") {
		t.Error("newlines in text parts must become <br>")
	}
}
