// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package normalize converts raw conversation sources into the
// canonical model.Conversation consumed by every renderer.
//
// Two sources are supported:
//
//   - The API payload: a tree of nodes (conversations that were edited
//     or regenerated form branches). Normalize walks the tree from each
//     root following only the last child at every branch point, which
//     reconstructs the single chronological path the user currently
//     sees and discards abandoned branches.
//
//   - A DOM snapshot of the conversation page, used when the API is
//     unreachable or yields no usable messages. This path is strictly a
//     degraded-fidelity fallback: asset ids recovered from the DOM are
//     whatever URL the page happened to resolve (often transient blob:
//     references) and are not stable across sessions.
//
// Both entry points are total: adversarial or malformed input degrades
// to defaults or an empty conversation, never an error.
package normalize
