// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the chat backend.
//
// It covers the three calls the exporter needs: fetching one raw
// conversation payload, paginated discovery of conversation metadata,
// and translating file-service asset ids into download URLs. Requests
// are rate limited client-side and retried on transient failures;
// auth and not-found conditions map to typed sentinel errors so the
// coordinator can classify per-item failures.
package api
