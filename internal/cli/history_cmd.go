// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/daryllundy/chatgpt-exporter/internal/config"
	"github.com/daryllundy/chatgpt-exporter/internal/history"
	"github.com/daryllundy/chatgpt-exporter/internal/util"
)

// HandleHistory shows past export runs, or one run's per-conversation
// outcomes when --run is given.
func HandleHistory(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path := cfg.History.Path
	if path == "" {
		path, err = history.DefaultPath()
		if err != nil {
			return err
		}
	}

	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if args.Subcommand != "" {
		return printOutcomes(ctx, store, args.Subcommand)
	}
	return printRuns(ctx, store, args.Limit)
}

func printRuns(ctx context.Context, store *history.Store, limit int) error {
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println(DimStyle.Render("no export runs recorded yet"))
		return nil
	}

	fmt.Println(TitleStyle.Render("Export history"))
	for _, run := range runs {
		line := fmt.Sprintf("%s  %s  %s  scope=%s formats=%s",
			RenderStatus(string(run.Status)),
			run.StartedAt.Format("2006-01-02 15:04"),
			run.ID,
			run.Scope, run.Formats)
		if run.Status == history.RunDone {
			line += fmt.Sprintf("  exported=%d failed=%d", run.Exported, run.Failed)
		}
		fmt.Println(line)
		if run.ArchivePath != "" {
			fmt.Println("        " + DimStyle.Render(run.ArchivePath))
		}
	}
	return nil
}

func printOutcomes(ctx context.Context, store *history.Store, runID string) error {
	outcomes, err := store.Outcomes(ctx, runID)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		fmt.Println(DimStyle.Render("no outcomes recorded for run " + runID))
		return nil
	}

	fmt.Println(TitleStyle.Render("Run " + runID))
	for _, o := range outcomes {
		title := o.Title
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("%s  %s  %s", RenderStatus(string(o.Status)), o.ConversationID, title)
		if o.Reason != "" {
			line += "  " + DimStyle.Render(util.TruncateRunes(o.Reason, 80))
		}
		fmt.Println(line)
	}
	return nil
}

// historyTimeout bounds database reads; sqlite should answer quickly.
const historyTimeout = 10 * time.Second
