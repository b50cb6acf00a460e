// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assets resolves opaque asset ids into image bytes.
//
// The id scheme decides the strategy: file-service:// ids go through
// the API's download-URL endpoint, data: ids decode inline, http(s)://
// ids are fetched directly, and blob: ids are page-session handles
// that cannot be resolved outside the live page. A failed resolution
// returns nil rather than an error - the renderers substitute
// placeholders, and one missing image never fails an export item.
package assets
