// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the command-line interface of the exporter.
//
// The CLI is deliberately thin: commands parse flags, wire the
// collaborators from internal/, and print results. All export
// semantics live in the coordinator and below.
package cli
