// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/daryllundy/chatgpt-exporter/internal/assets"
	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

func makeRecord(id, title, group string) Record {
	ct := int64(1714000000)
	return Record{
		Conversation: &model.Conversation{
			ID:          id,
			Title:       title,
			CreateTime:  &ct,
			CustomGroup: group,
			Messages: []model.Message{
				{ID: "m1", Role: model.RoleUser, Parts: []model.ContentPart{
					model.TextPart{Text: "hello"},
				}},
			},
		},
		Assets: map[string]*assets.Asset{},
	}
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("not a valid zip: %v", err)
	}
	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		content, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = string(content)
	}
	return files
}

func TestPackage_Layout(t *testing.T) {
	p := NewPackager([]string{"json", "markdown", "html"}, "{title}")

	records := []Record{
		makeRecord("c1", "Alpha", ""),
		makeRecord("c2", "Beta", "My Assistant"),
	}

	data, err := p.Package(records, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	files := readArchive(t, data)

	for _, want := range []string{
		"conversations/alpha.json",
		"conversations/alpha.md",
		"conversations/alpha.html",
		"groups/my-assistant/beta.json",
		"index.html",
		"summary.txt",
	} {
		if _, ok := files[want]; !ok {
			t.Errorf("archive missing %s; has %v", want, keys(files))
		}
	}
}

func TestPackage_CollisionSuffixes(t *testing.T) {
	p := NewPackager([]string{"json"}, "{title}")

	records := []Record{
		makeRecord("c1", "Same", ""),
		makeRecord("c2", "Same", ""),
		makeRecord("c3", "Same", ""),
	}

	data, err := p.Package(records, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	files := readArchive(t, data)

	for _, want := range []string{
		"conversations/same.json",
		"conversations/same-2.json",
		"conversations/same-3.json",
	} {
		if _, ok := files[want]; !ok {
			t.Errorf("missing %s", want)
		}
	}
}

func TestPackage_ImagesWrittenOncePerHash(t *testing.T) {
	p := NewPackager([]string{"markdown", "html"}, "{title}")

	shared := []byte("same image bytes")
	rec1 := makeRecord("c1", "One", "")
	rec1.Conversation.Messages[0].Parts = append(rec1.Conversation.Messages[0].Parts,
		model.ImagePart{AssetID: "file-service://a", MimeType: "image/png"})
	rec1.Assets["file-service://a"] = assetFor(shared)

	rec2 := makeRecord("c2", "Two", "")
	rec2.Conversation.Messages[0].Parts = append(rec2.Conversation.Messages[0].Parts,
		model.ImagePart{AssetID: "file-service://b", MimeType: "image/png"})
	rec2.Assets["file-service://b"] = assetFor(shared)

	data, err := p.Package([]Record{rec1, rec2}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	files := readArchive(t, data)

	images := 0
	for name := range files {
		if strings.HasPrefix(name, "images/") {
			images++
		}
	}
	if images != 1 {
		t.Errorf("identical bytes must be written once, got %d image files", images)
	}

	// Markdown references the raw copy by relative path; HTML embeds a
	// data URI.
	md := files["conversations/one.md"]
	if !strings.Contains(md, "![Image](../images/") {
		t.Errorf("markdown missing relative image ref: %q", md)
	}
	html := files["conversations/one.html"]
	if !strings.Contains(html, "data:image/png;base64,") {
		t.Errorf("html missing embedded data URI")
	}
}

func TestPackage_SummaryListsFailures(t *testing.T) {
	p := NewPackager([]string{"json"}, "{title}")

	failures := []Failure{
		{ID: "bad-1", Title: "Broken", Reason: "fetch failed: 404"},
		{ID: "bad-2", Reason: "network timeout"},
	}

	data, err := p.Package([]Record{makeRecord("c1", "Good", "")}, failures, 2)
	if err != nil {
		t.Fatal(err)
	}
	files := readArchive(t, data)

	summary := files["summary.txt"]
	for _, want := range []string{
		"Exported: 1",
		"Failed:   2",
		"Empty (excluded): 2",
		"Broken (bad-1): fetch failed: 404",
		"bad-2: network timeout",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestPackage_IndexEscapesTitles(t *testing.T) {
	p := NewPackager([]string{"json"}, "{id}")

	data, err := p.Package([]Record{makeRecord("c1", "<script>x</script>", "")}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	files := readArchive(t, data)

	index := files["index.html"]
	if strings.Contains(index, "<script>x") {
		t.Fatal("unescaped title in index")
	}
	if !strings.Contains(index, "&lt;script&gt;x") {
		t.Error("title not escaped in index")
	}
}

func TestPackage_EmptyBatchStillProducesArchive(t *testing.T) {
	p := NewPackager([]string{"json"}, "{title}")

	data, err := p.Package(nil, []Failure{{ID: "x", Reason: "gone"}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	files := readArchive(t, data)
	if _, ok := files["summary.txt"]; !ok {
		t.Error("archive with only failures must still carry the summary")
	}
}

func assetFor(b []byte) *assets.Asset {
	return assets.New(b, "image/png")
}

func keys(m map[string]string) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
