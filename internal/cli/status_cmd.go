// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/daryllundy/chatgpt-exporter/internal/checkpoint"
	"github.com/daryllundy/chatgpt-exporter/internal/config"
)

// HandleStatus shows configuration, checkpoint presence and API
// reachability.
func HandleStatus(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("chatgpt-exporter status"))

	fmt.Printf("%s %s\n", LabelStyle.Render("Base URL:"), ValueStyle.Render(cfg.API.BaseURL))
	token := RenderStatus("missing")
	if cfg.API.AccessToken != "" {
		token = RenderStatus("ok")
	}
	fmt.Printf("%s %s\n", LabelStyle.Render("Access token:"), token)
	fmt.Printf("%s %s\n", LabelStyle.Render("Formats:"), ValueStyle.Render(strings.Join(cfg.Export.Formats, ", ")))
	fmt.Printf("%s %s\n", LabelStyle.Render("Output dir:"), ValueStyle.Render(cfg.Export.OutputDir))
	fmt.Printf("%s %s\n", LabelStyle.Render("Template:"), ValueStyle.Render(cfg.Export.Template))

	printCheckpointStatus()
	printAPIStatus(cfg)
	return nil
}

func printCheckpointStatus() {
	path, err := checkpoint.DefaultPath()
	if err != nil {
		return
	}
	state, err := checkpoint.NewFileStore(path).Get()
	switch {
	case err != nil:
		fmt.Printf("%s %s\n", LabelStyle.Render("Checkpoint:"), ErrorStyle.Render(err.Error()))
	case state == nil:
		fmt.Printf("%s %s\n", LabelStyle.Render("Checkpoint:"), DimStyle.Render("none"))
	case state.Resumable():
		fmt.Printf("%s %s\n", LabelStyle.Render("Checkpoint:"),
			WarningStyle.Render(fmt.Sprintf("interrupted run %s (%d/%d done) - use export --resume",
				state.RunID, len(state.CompletedIDs), len(state.AllIDs))))
	default:
		fmt.Printf("%s %s\n", LabelStyle.Render("Checkpoint:"), DimStyle.Render(string(state.Status)))
	}
}

func printAPIStatus(cfg *config.Config) {
	if cfg.API.AccessToken == "" {
		fmt.Printf("%s %s\n", LabelStyle.Render("API:"), DimStyle.Render("skipped (no token)"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := newClient(cfg).Ping(ctx); err != nil {
		fmt.Printf("%s %s %s\n", LabelStyle.Render("API:"), RenderStatus("error"), DimStyle.Render(err.Error()))
		return
	}
	fmt.Printf("%s %s\n", LabelStyle.Render("API:"), RenderStatus("ok"))
}
