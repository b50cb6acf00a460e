// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/daryllundy/chatgpt-exporter/internal/model"
)

// discoveryPageSize is the page size for conversation enumeration.
const discoveryPageSize = 50

// =============================================================================
// DISCOVERY TYPES
// =============================================================================

// ConversationItem is one entry of the conversation listing: the
// metadata discovery hands to the coordinator.
type ConversationItem struct {
	ID        string
	Title     string
	UpdatedAt *int64

	// GizmoID identifies the custom assistant this conversation
	// belongs to; empty for the default assistant. The coordinator
	// turns it into a custom group name.
	GizmoID string
}

// ConversationPage is one page of discovery results.
type ConversationPage struct {
	Items  []ConversationItem
	Total  int
	Offset int
	Limit  int
}

type rawItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	UpdateTime any    `json:"update_time"`
	GizmoID    string `json:"gizmo_id"`
}

type rawPage struct {
	Items  []rawItem `json:"items"`
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}

// =============================================================================
// DISCOVERY REQUESTS
// =============================================================================

// ListConversations fetches one page of conversation metadata ordered
// by most recently updated.
func (c *Client) ListConversations(ctx context.Context, offset, limit int) (*ConversationPage, error) {
	path := fmt.Sprintf("/conversations?offset=%d&limit=%d&order=updated", offset, limit)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var raw rawPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid listing response", Cause: err}
	}

	page := &ConversationPage{
		Total:  raw.Total,
		Offset: raw.Offset,
		Limit:  raw.Limit,
		Items:  make([]ConversationItem, 0, len(raw.Items)),
	}
	for _, item := range raw.Items {
		if item.ID == "" {
			continue
		}
		page.Items = append(page.Items, ConversationItem{
			ID:        item.ID,
			Title:     item.Title,
			UpdatedAt: model.CoerceTime(item.UpdateTime),
			GizmoID:   item.GizmoID,
		})
	}
	return page, nil
}

// ListAll enumerates every conversation, invoking fn once per page as
// results arrive. Enumeration is interruptible: an error from fn (or
// a cancelled context) stops pagination and is returned as-is, so the
// caller can persist partial progress.
func (c *Client) ListAll(ctx context.Context, fn func(items []ConversationItem) error) error {
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := c.ListConversations(ctx, offset, discoveryPageSize)
		if err != nil {
			return err
		}
		if len(page.Items) == 0 {
			return nil
		}

		if err := fn(page.Items); err != nil {
			return err
		}

		offset += len(page.Items)
		if page.Total > 0 && offset >= page.Total {
			return nil
		}
	}
}
