// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// maxAssetBytes bounds a single image download. Images are held in
// memory until packaging; an unbounded read would let one asset stall
// the batch.
const maxAssetBytes = 32 << 20 // 32 MiB

// =============================================================================
// ASSET
// =============================================================================

// Asset is resolved image content plus the metadata the packager and
// the HTML renderer need.
type Asset struct {
	Bytes    []byte
	MimeType string

	// Hash is the hex blake2b-256 of Bytes. The packager uses it to
	// write identical images once.
	Hash string
}

// DataURI returns the asset embedded as a data: URI for the
// self-contained HTML renderer.
func (a *Asset) DataURI() string {
	return "data:" + a.MimeType + ";base64," + base64.StdEncoding.EncodeToString(a.Bytes)
}

// FileExt maps the mime type to a file extension for the raw copy in
// the archive.
func (a *Asset) FileExt() string {
	switch a.MimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".png"
	}
}

// =============================================================================
// RESOLVER
// =============================================================================

// URLResolver translates a file-service id into a fetchable URL. The
// api.Client implements this; tests substitute fakes.
type URLResolver interface {
	ResolveFileURL(ctx context.Context, fileID string) (string, error)
}

// Resolver fetches and decodes asset bytes by id scheme.
type Resolver struct {
	httpClient *http.Client
	urls       URLResolver
}

// NewResolver creates a resolver. urls may be nil, in which case
// file-service ids are unresolvable (DOM-fallback-only runs).
func NewResolver(urls URLResolver) *Resolver {
	return &Resolver{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		urls:       urls,
	}
}

// Resolve fetches the bytes behind an asset id. A nil Asset with a nil
// error means "not obtainable": the caller substitutes a placeholder
// and the export item still succeeds. The error return is reserved for
// context cancellation, which must stop the batch loop.
func (r *Resolver) Resolve(ctx context.Context, assetID, mimeHint string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(assetID, "data:"):
		return decodeDataURI(assetID), nil

	case strings.HasPrefix(assetID, "blob:"):
		// Blob URLs only exist inside the originating page session.
		return nil, nil

	case strings.HasPrefix(assetID, "http://"), strings.HasPrefix(assetID, "https://"):
		return r.fetch(ctx, assetID, mimeHint)

	case strings.HasPrefix(assetID, "file-service://"):
		if r.urls == nil {
			return nil, nil
		}
		fileID := strings.TrimPrefix(assetID, "file-service://")
		url, err := r.urls.ResolveFileURL(ctx, fileID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, nil
		}
		return r.fetch(ctx, url, mimeHint)

	default:
		return nil, nil
	}
}

// fetch downloads bytes from a URL. All failures degrade to nil except
// context cancellation.
func (r *Resolver) fetch(ctx context.Context, url, mimeHint string) (*Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil || len(body) == 0 {
		return nil, nil
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimeHint
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	return New(body, mimeType), nil
}

// decodeDataURI decodes an inline data: asset. Only base64 payloads
// are supported; anything else is unobtainable.
func decodeDataURI(uri string) *Asset {
	rest := strings.TrimPrefix(uri, "data:")
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return nil
	}

	if !strings.HasSuffix(meta, ";base64") {
		return nil
	}
	mimeType := strings.TrimSuffix(meta, ";base64")
	if mimeType == "" {
		mimeType = "image/png"
	}

	body, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(body) == 0 {
		return nil
	}
	return New(body, mimeType)
}

// New wraps raw bytes as an Asset, computing the content hash.
func New(body []byte, mimeType string) *Asset {
	sum := blake2b.Sum256(body)
	return &Asset{
		Bytes:    body,
		MimeType: mimeType,
		Hash:     fmt.Sprintf("%x", sum[:16]),
	}
}
