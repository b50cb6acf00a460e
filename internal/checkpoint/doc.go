// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package checkpoint persists batch-export progress so an interrupted
// run can resume without repeating completed work.
//
// The checkpoint is the coordinator's only durable state: a small
// versioned JSON blob holding the discovered id list and the set of
// completed ids. It is modeled as an external key-value dependency
// (get/set/remove) rather than an in-process concern, so the
// coordinator's logic is testable against an in-memory store.
package checkpoint
