// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns canonical conversations into export artifacts.
//
// Three renderers share one contract: pure, deterministic functions
// from a validated Conversation (plus auxiliary asset maps) to bytes.
// Identical input yields byte-identical output; renderers never touch
// the network or the clock. The only error they return is a nil
// conversation - content problems degrade to placeholders instead.
//
// The auxiliary maps join image parts to their resolved bytes by asset
// id: Markdown gets relative file names, HTML gets embedded data URIs.
// JSON references assets by id only.
package render
