// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archive assembles the final export ZIP.
//
// Layout:
//
//	index.html                 - links every exported conversation
//	summary.txt                - success/failure report
//	conversations/<name>.<ext> - artifacts for the default group
//	groups/<group>/<name>.<ext>- artifacts for custom groups
//	images/<hash>.<ext>        - raw image bytes, one copy per content
//	                             hash
//
// Images appear twice conceptually: once as raw bytes for Markdown and
// JSON consumers to reference by relative path, and once embedded as
// data URIs inside the HTML artifacts. The two representations never
// share mutable state.
//
// File naming is governed by the user's template; the batch-scoped
// de-duplication set lives in the packager invocation, so suffix
// assignment is deterministic given stable record order.
package archive
