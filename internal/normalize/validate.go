// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

// =============================================================================
// VALIDATION
// =============================================================================

// Validate applies field-level defaults and drops invalid messages.
// It is idempotent and must run exactly once per conversation before
// the conversation reaches any renderer (the coordinator owns that
// call).
//
// Defaults applied:
//   - empty id: synthetic timestamp-based id
//   - empty title: "Untitled Chat"
//   - nil message slice: empty slice
//   - messages with zero parts: dropped
func Validate(conv model.Conversation) model.Conversation {
	if strings.TrimSpace(conv.ID) == "" {
		conv.ID = syntheticID()
	}
	if strings.TrimSpace(conv.Title) == "" {
		conv.Title = model.DefaultTitle
	}

	messages := make([]model.Message, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		if len(msg.Parts) == 0 {
			continue
		}
		if msg.Role == "" {
			msg.Role = model.RoleUnknown
		}
		messages = append(messages, msg)
	}
	conv.Messages = messages

	return conv
}

// syntheticID builds a unique fallback id for conversations whose
// upstream id is missing or malformed.
func syntheticID() string {
	return fmt.Sprintf("chat-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}
