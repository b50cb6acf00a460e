// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/daryllundy/chatgpt-exporter/internal/assets"
	"github.com/daryllundy/chatgpt-exporter/internal/model"
	"github.com/daryllundy/chatgpt-exporter/internal/naming"
	"github.com/daryllundy/chatgpt-exporter/internal/render"
)

// =============================================================================
// TYPES
// =============================================================================

// Record is one exported conversation plus its resolved assets, keyed
// by asset id. Unresolved assets simply have no entry.
type Record struct {
	Conversation *model.Conversation
	Assets       map[string]*assets.Asset
}

// Failure describes one item that could not be exported.
type Failure struct {
	ID     string
	Title  string
	Reason string
}

// Packager assembles one archive per export run.
type Packager struct {
	formats  []string
	template string
}

// NewPackager creates a packager for the selected formats and naming
// template.
func NewPackager(formats []string, template string) *Packager {
	return &Packager{formats: formats, template: template}
}

// =============================================================================
// PACKAGING
// =============================================================================

// Package renders every record in every selected format and writes the
// ZIP. Record order determines both artifact order and collision
// suffix assignment, so callers must pass records in a stable order.
// Packaging errors are catastrophic: unlike per-item export failures
// they abort the run.
func (p *Packager) Package(records []Record, failures []Failure, emptyExcluded int) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	names := naming.NewBuilder(p.template)
	written := make(map[string]string) // content hash -> archive path
	var entries []indexEntry

	for _, record := range records {
		conv := record.Conversation
		if conv == nil {
			continue
		}

		base := names.BuildFileName(conv.Title, conv.ID, conv.CreateTime)
		dir := "conversations"
		if conv.CustomGroup != "" {
			group := naming.Slugify(conv.CustomGroup)
			if group == "" {
				group = "group"
			}
			dir = "groups/" + group
		}

		imageFiles, err := p.writeImages(zw, record, written)
		if err != nil {
			return nil, fmt.Errorf("write images for %s: %w", conv.ID, err)
		}

		aux := p.buildAux(record, imageFiles, dir)

		entry := indexEntry{Title: conv.Title, Group: conv.CustomGroup}
		for _, format := range p.formats {
			renderer, ok := render.ForFormat(format)
			if !ok {
				continue
			}
			content, err := renderer.Render(conv, aux)
			if err != nil {
				return nil, fmt.Errorf("render %s as %s: %w", conv.ID, format, err)
			}
			path := dir + "/" + base + renderer.FileExtension()
			if err := writeFile(zw, path, content); err != nil {
				return nil, err
			}
			entry.Paths = append(entry.Paths, path)
		}
		entries = append(entries, entry)
	}

	if err := writeFile(zw, "index.html", renderIndex(entries, failures)); err != nil {
		return nil, err
	}
	if err := writeFile(zw, "summary.txt", renderSummary(len(entries), failures, emptyExcluded)); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// writeImages stores each resolved asset's raw bytes once per content
// hash and returns the assetID -> archive path map for this record.
func (p *Packager) writeImages(zw *zip.Writer, record Record, written map[string]string) (map[string]string, error) {
	imageFiles := make(map[string]string)

	for _, assetID := range record.Conversation.AssetIDs() {
		asset := record.Assets[assetID]
		if asset == nil {
			continue
		}
		path, ok := written[asset.Hash]
		if !ok {
			path = "images/" + asset.Hash + asset.FileExt()
			if err := writeFile(zw, path, asset.Bytes); err != nil {
				return nil, err
			}
			written[asset.Hash] = path
		}
		imageFiles[assetID] = path
	}
	return imageFiles, nil
}

// buildAux prepares the renderer maps: Markdown needs paths relative
// to the artifact's directory, HTML needs embedded data URIs.
func (p *Packager) buildAux(record Record, imageFiles map[string]string, dir string) *render.Aux {
	// conversations/x.md -> ../images/..., groups/g/x.md -> ../../images/...
	prefix := strings.Repeat("../", strings.Count(dir, "/")+1)

	aux := &render.Aux{
		ImageFiles: make(map[string]string, len(imageFiles)),
		ImageData:  make(map[string]string, len(imageFiles)),
	}
	for assetID, path := range imageFiles {
		aux.ImageFiles[assetID] = prefix + path
		if asset := record.Assets[assetID]; asset != nil {
			aux.ImageData[assetID] = asset.DataURI()
		}
	}
	return aux
}

func writeFile(zw *zip.Writer, path string, content []byte) error {
	w, err := zw.Create(path)
	if err != nil {
		return fmt.Errorf("create %s in archive: %w", path, err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("write %s in archive: %w", path, err)
	}
	return nil
}
