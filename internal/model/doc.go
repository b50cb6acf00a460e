// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the canonical conversation types shared by the
// normalizer, the renderers, the asset resolver and the archive
// packager.
//
// A Conversation is built once per export attempt by the normalize
// package and is treated as immutable from then on: renderers and the
// packager read it, nothing mutates it. Message content is a closed
// union of three part kinds (text, code, image); anything the
// normalizer does not recognize is dropped before it reaches this
// package, so consumers only ever see the three kinds plus a deliberate
// default arm.
package model
