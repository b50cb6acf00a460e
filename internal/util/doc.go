// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the exporter.
//
// It contains:
//   - Atomic file writes (temp file + fsync + rename) used by the
//     checkpoint store and archive output
//   - Display-width aware string truncation for progress and summary
//     output
//
// Nothing in this package knows about conversations or archives.
package util
