// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package naming

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTemplate is used when the config carries no naming template.
const DefaultTemplate = "{date}_{title}"

// dateLayout formats the {date} token.
const dateLayout = "2006-01-02"

// =============================================================================
// FILE NAME BUILDER
// =============================================================================

// Builder computes base file names (no extension) from a template and
// guarantees uniqueness within one batch. It is owned by a single
// packaging run and is not safe for concurrent use - the export
// pipeline is strictly sequential.
type Builder struct {
	template string
	used     map[string]bool
}

// NewBuilder creates a builder for one batch. An empty template falls
// back to DefaultTemplate.
func NewBuilder(template string) *Builder {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	return &Builder{
		template: template,
		used:     make(map[string]bool),
	}
}

// BuildFileName expands the template for one conversation and returns
// a name unique within this builder's batch. Collisions get an
// incrementing numeric suffix: the first caller of a base name keeps
// it, the second gets "-2", the third "-3", and so on.
//
// Tokens: {date} (conversation create date, today when unknown),
// {title} (slug), {id} (slug). Unknown tokens are left as literal
// text - a documented fallback, not an error.
func (b *Builder) BuildFileName(title, id string, createTime *int64) string {
	date := time.Now().Format(dateLayout)
	if createTime != nil {
		date = time.Unix(*createTime, 0).UTC().Format(dateLayout)
	}

	titleSlug := Slugify(title)
	if titleSlug == "" {
		titleSlug = Slugify(id)
	}
	if titleSlug == "" {
		titleSlug = "untitled"
	}

	name := b.template
	name = strings.ReplaceAll(name, "{date}", date)
	name = strings.ReplaceAll(name, "{title}", titleSlug)
	name = strings.ReplaceAll(name, "{id}", Slugify(id))

	return b.dedupe(sanitize(name))
}

// dedupe reserves the name in the batch-scoped set, suffixing until
// unique.
func (b *Builder) dedupe(base string) string {
	name := base
	for n := 2; b.used[name]; n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	b.used[name] = true
	return name
}

// sanitize strips path separators and control characters that survived
// template literals. Token expansion is already slug-safe; this guards
// the literal portions of a user-supplied template.
func sanitize(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			sb.WriteByte('-')
		case r < 32 || r == 127:
			sb.WriteByte('-')
		default:
			sb.WriteRune(r)
		}
	}
	name = strings.TrimSpace(sb.String())
	if name == "" {
		return "conversation"
	}
	return name
}
