// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daryllundy/chatgpt-exporter/internal/api"
	"github.com/daryllundy/chatgpt-exporter/internal/config"
	"github.com/daryllundy/chatgpt-exporter/internal/util"
)

// errListDone stops pagination early once --limit is reached.
var errListDone = errors.New("listing limit reached")

// HandleList prints conversation metadata from the API.
func HandleList(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.API.AccessToken == "" {
		return errors.New("no access token configured; set CHATGPT_EXPORTER_TOKEN")
	}
	client := newClient(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	count := 0
	err = client.ListAll(ctx, func(items []api.ConversationItem) error {
		for _, item := range items {
			printItem(item, args.Quiet)
			count++
			if args.Limit > 0 && count >= args.Limit {
				return errListDone
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errListDone) {
		return err
	}

	if !args.Quiet {
		fmt.Printf("\n%d conversation(s)\n", count)
	}
	return nil
}

func printItem(item api.ConversationItem, quiet bool) {
	if quiet {
		fmt.Println(item.ID)
		return
	}

	title := util.TruncateWidth(util.CollapseWhitespace(item.Title), 48)
	if title == "" {
		title = DimStyle.Render("(untitled)")
	} else {
		title = util.PadRight(title, 48)
	}

	updated := ""
	if item.UpdatedAt != nil {
		updated = time.Unix(*item.UpdatedAt, 0).UTC().Format("2006-01-02 15:04")
	}

	line := fmt.Sprintf("%s  %s  %s", ValueStyle.Render(title), DimStyle.Render(item.ID), updated)
	if item.GizmoID != "" {
		line += "  " + WarningStyle.Render("["+item.GizmoID+"]")
	}
	fmt.Println(line)
}
