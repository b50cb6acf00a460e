// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
)

// =============================================================================
// TIMESTAMP COERCION TESTS
// =============================================================================

func TestCoerceTime_Float(t *testing.T) {
	got := CoerceTime(1714000000.9)
	if got == nil || *got != 1714000000 {
		t.Fatalf("CoerceTime(float) = %v, want 1714000000", got)
	}
}

func TestCoerceTime_RFC3339(t *testing.T) {
	got := CoerceTime("2024-04-24T22:26:40Z")
	if got == nil || *got != 1714000000 {
		t.Fatalf("CoerceTime(rfc3339) = %v, want 1714000000", got)
	}
}

func TestCoerceTime_EpochMillisString(t *testing.T) {
	got := CoerceTime("1714000000123")
	if got == nil || *got != 1714000000 {
		t.Fatalf("CoerceTime(millis) = %v, want 1714000000", got)
	}
}

func TestCoerceTime_Garbage(t *testing.T) {
	cases := []any{nil, "not a date", true, []string{"x"}, ""}
	for _, c := range cases {
		if got := CoerceTime(c); got != nil {
			t.Errorf("CoerceTime(%v) = %d, want nil", c, *got)
		}
	}
}

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"user":      RoleUser,
		"assistant": RoleAssistant,
		"system":    RoleSystem,
		"tool":      RoleTool,
		"":          RoleUnknown,
		"critic":    RoleUnknown,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestAssetIDs_DeduplicatesInOrder(t *testing.T) {
	conv := Conversation{
		Messages: []Message{
			{Parts: []ContentPart{
				ImagePart{AssetID: "file-service://a"},
				TextPart{Text: "hi"},
			}},
			{Parts: []ContentPart{
				ImagePart{AssetID: "file-service://b"},
				ImagePart{AssetID: "file-service://a"},
			}},
		},
	}

	ids := conv.AssetIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 asset ids, got %d: %v", len(ids), ids)
	}
	if ids[0] != "file-service://a" || ids[1] != "file-service://b" {
		t.Errorf("wrong order: %v", ids)
	}
}

func TestIsEmpty(t *testing.T) {
	var conv Conversation
	if !conv.IsEmpty() {
		t.Error("conversation with no messages should be empty")
	}
	conv.Messages = []Message{{Parts: []ContentPart{TextPart{Text: "x"}}}}
	if conv.IsEmpty() {
		t.Error("conversation with a message should not be empty")
	}
}
