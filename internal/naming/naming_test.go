// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package naming

import (
	"fmt"
	"strings"
	"testing"
)

// =============================================================================
// SLUGIFY TESTS
// =============================================================================

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  lots   of   spaces  ", "lots-of-spaces"},
		{"Café au lait", "cafe-au-lait"},
		{"C++ & Go!", "c-go"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"日本語のタイトル", ""},
		{"MIXED case 123", "mixed-case-123"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	inputs := []string{"Hello World", "Café!!", "a--b--c", strings.Repeat("xyz ", 100)}
	for _, in := range inputs {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestSlugify_Properties(t *testing.T) {
	inputs := []string{
		strings.Repeat("long title ", 50),
		"-leading and trailing-",
		"UPPER lower 42 @#$",
	}
	for _, in := range inputs {
		slug := Slugify(in)
		if len(slug) > 80 {
			t.Errorf("Slugify(%q) length %d > 80", in, len(slug))
		}
		if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
			t.Errorf("Slugify(%q) = %q has edge hyphen", in, slug)
		}
		for _, r := range slug {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
				t.Errorf("Slugify(%q) contains %q", in, r)
			}
		}
	}
}

// =============================================================================
// FILE NAME TESTS
// =============================================================================

func TestBuildFileName_Tokens(t *testing.T) {
	b := NewBuilder("{date}_{title}_{id}")
	ct := int64(1714000000) // 2024-04-24 UTC
	name := b.BuildFileName("My Chat", "abc-123", &ct)
	if name != "2024-04-24_my-chat_abc-123" {
		t.Errorf("name = %q", name)
	}
}

func TestBuildFileName_UnknownTokenLiteral(t *testing.T) {
	b := NewBuilder("{title}_{nope}")
	ct := int64(1714000000)
	name := b.BuildFileName("Chat", "id1", &ct)
	if name != "chat_{nope}" {
		t.Errorf("unknown token must stay literal, got %q", name)
	}
}

func TestBuildFileName_CollisionSuffixes(t *testing.T) {
	b := NewBuilder("{title}")
	ct := int64(1714000000)

	for k := 1; k <= 5; k++ {
		want := "same-title"
		if k > 1 {
			want = fmt.Sprintf("same-title-%d", k)
		}
		if got := b.BuildFileName("Same Title", fmt.Sprintf("id-%d", k), &ct); got != want {
			t.Errorf("call %d = %q, want %q", k, got, want)
		}
	}
}

func TestBuildFileName_EmptyTitleFallsBackToID(t *testing.T) {
	b := NewBuilder("{title}")
	name := b.BuildFileName("日本語", "conv-77", nil)
	if name != "conv-77" {
		t.Errorf("name = %q, want id slug fallback", name)
	}
}

func TestBuildFileName_SanitizesTemplateLiterals(t *testing.T) {
	b := NewBuilder("export/{title}")
	ct := int64(1714000000)
	name := b.BuildFileName("Chat", "id1", &ct)
	if strings.ContainsAny(name, `/\`) {
		t.Errorf("path separator survived: %q", name)
	}
}
