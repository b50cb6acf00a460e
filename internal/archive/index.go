// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"fmt"
	"html"
	"path"
	"strings"
)

// indexEntry is one conversation's row in the archive index.
type indexEntry struct {
	Title string
	Group string
	Paths []string
}

// =============================================================================
// INDEX DOCUMENT
// =============================================================================

// renderIndex builds the root index.html. Titles come from
// conversation data and are escaped like any other user content.
func renderIndex(entries []indexEntry, failures []Failure) []byte {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <title>Conversation Export</title>\n")
	sb.WriteString(indexCSS)
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(fmt.Sprintf("    <h1>Conversation Export</h1>\n    <p>%d conversation(s)</p>\n", len(entries)))

	sb.WriteString("    <ul class=\"entries\">\n")
	for _, entry := range entries {
		sb.WriteString("        <li>")
		sb.WriteString(html.EscapeString(entry.Title))
		if entry.Group != "" {
			sb.WriteString(fmt.Sprintf(" <span class=\"group\">[%s]</span>", html.EscapeString(entry.Group)))
		}
		for _, p := range entry.Paths {
			label := strings.TrimPrefix(path.Ext(p), ".")
			sb.WriteString(fmt.Sprintf(" <a href=\"%s\">%s</a>", html.EscapeString(p), html.EscapeString(label)))
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("    </ul>\n")

	if len(failures) > 0 {
		sb.WriteString(fmt.Sprintf("    <h2>Failed (%d)</h2>\n    <ul class=\"failures\">\n", len(failures)))
		for _, f := range failures {
			sb.WriteString(fmt.Sprintf("        <li>%s - %s</li>\n",
				html.EscapeString(failureLabel(f)), html.EscapeString(f.Reason)))
		}
		sb.WriteString("    </ul>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String())
}

// renderSummary builds the plain-text report. Every failed id appears
// with its reason; empty conversations are counted but deliberately
// not listed as failures.
func renderSummary(exported int, failures []Failure, emptyExcluded int) []byte {
	var sb strings.Builder

	sb.WriteString("Conversation Export Summary\n")
	sb.WriteString("===========================\n\n")
	sb.WriteString(fmt.Sprintf("Exported: %d\n", exported))
	sb.WriteString(fmt.Sprintf("Failed:   %d\n", len(failures)))
	if emptyExcluded > 0 {
		sb.WriteString(fmt.Sprintf("Empty (excluded): %d\n", emptyExcluded))
	}

	if len(failures) > 0 {
		sb.WriteString("\nFailures:\n")
		for _, f := range failures {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", failureLabel(f), f.Reason))
		}
	}

	return []byte(sb.String())
}

func failureLabel(f Failure) string {
	if f.Title != "" {
		return fmt.Sprintf("%s (%s)", f.Title, f.ID)
	}
	return f.ID
}

const indexCSS = `    <style>
        body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 24px;
               color: #18181b; }
        .entries li, .failures li { margin: 4px 0; }
        .group { color: #71717a; font-size: 0.9em; }
        a { margin-left: 6px; }
    </style>
`
