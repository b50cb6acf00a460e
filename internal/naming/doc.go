// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package naming generates deterministic, collision-free file names
// from a user-suppliable template.
//
// Recognized tokens are {date}, {title} and {id}; unknown tokens pass
// through as literal text. A Builder carries the batch-scoped
// de-duplication set: the first caller of a base name gets it
// unmodified, later callers get -2, -3, ... suffixes. Suffix
// assignment therefore depends only on call order, which the
// coordinator keeps stable.
package naming
