// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLen bounds slugs so templated file names stay comfortably
// inside filesystem limits.
const maxSlugLen = 80

// accentFolder decomposes characters and strips combining marks, so
// "Café" slugs to "cafe" instead of losing the rune entirely.
var accentFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowers a string into lowercase alphanumerics and hyphens.
// Properties, relied on by tests and by the archive layout:
//
//   - idempotent: Slugify(Slugify(x)) == Slugify(x)
//   - at most 80 runes
//   - no characters outside [a-z0-9-]
//   - no leading or trailing hyphen
//
// An empty result (e.g. an all-emoji title) is the caller's problem;
// BuildFileName falls back to the id token in that case.
func Slugify(s string) string {
	if folded, _, err := transform.String(accentFolder, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var sb strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.TrimRight(sb.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}
