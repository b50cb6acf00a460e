// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package coordinator drives one export run end to end.
//
// A run moves through init -> discovering -> exporting -> packaging ->
// done, with error and cancelled as terminals reachable from any
// non-terminal phase. The id list is persisted before the first item is
// attempted, and each successfully exported id is checkpointed
// individually, so an interrupted run resumes from the last completed
// item without repeating discovery.
//
// Items are processed strictly sequentially. One item's failure never
// aborts the batch; only archive assembly errors are terminal.
// Cancellation is cooperative: the context is polled between items and
// around network calls, and an in-flight fetch is not interrupted.
package coordinator
