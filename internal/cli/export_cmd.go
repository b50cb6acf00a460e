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
	"github.com/daryllundy/chatgpt-exporter/internal/assets"
	"github.com/daryllundy/chatgpt-exporter/internal/checkpoint"
	"github.com/daryllundy/chatgpt-exporter/internal/config"
	"github.com/daryllundy/chatgpt-exporter/internal/coordinator"
	"github.com/daryllundy/chatgpt-exporter/internal/history"
)

// HandleExport runs the export command.
func HandleExport(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyExportFlags(cfg, args)

	if cfg.API.AccessToken == "" {
		return errors.New("no access token configured; set CHATGPT_EXPORTER_TOKEN or run `config set api.access_token ...`")
	}

	client := newClient(cfg)

	opts := coordinator.Options{
		Scope:     coordinator.Scope(args.Scope),
		IDs:       args.IDs,
		Formats:   cfg.Export.Formats,
		Template:  cfg.Export.Template,
		OutputDir: cfg.Export.OutputDir,
		Resume:    args.Resume,
	}

	// Ctrl-C cancels cooperatively; the checkpoint survives for a
	// later --resume.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord, err := newCoordinator(cfg, client, args)
	if err != nil {
		return err
	}

	if args.DryRun {
		return printPlan(ctx, coord, opts, args)
	}

	result, err := coord.Run(ctx, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("export cancelled; run again with --resume to continue"))
		}
		return err
	}

	printResult(result, args)
	return nil
}

// applyExportFlags overlays CLI flags onto the loaded configuration.
func applyExportFlags(cfg *config.Config, args Args) {
	if len(args.Formats) > 0 {
		cfg.Export.Formats = args.Formats
	}
	if args.Output != "" {
		cfg.Export.OutputDir = args.Output
	}
	if args.Template != "" {
		cfg.Export.Template = args.Template
	}
}

func newClient(cfg *config.Config) *api.Client {
	return api.NewClient(&api.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		AccessToken:       cfg.API.AccessToken,
		Timeout:           time.Duration(cfg.API.TimeoutSecs) * time.Second,
		MaxRetries:        cfg.API.MaxRetries,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	})
}

// newCoordinator wires the full export pipeline.
func newCoordinator(cfg *config.Config, client *api.Client, args Args) (*coordinator.Coordinator, error) {
	checkpointPath, err := checkpoint.DefaultPath()
	if err != nil {
		return nil, err
	}

	coordCfg := coordinator.Config{
		Fetcher:     client,
		Discoverer:  client,
		Resolver:    assets.NewResolver(client),
		Checkpoints: checkpoint.NewFileStore(checkpointPath),
	}
	if args.Verbose {
		coordCfg.Logf = func(format string, a ...any) {
			fmt.Fprintln(os.Stderr, DimStyle.Render(fmt.Sprintf(format, a...)))
		}
	}

	if cfg.History.Enabled {
		path := cfg.History.Path
		if path == "" {
			path, err = history.DefaultPath()
			if err != nil {
				return nil, err
			}
		}
		store, err := history.Open(path)
		if err != nil {
			// The run log is best-effort; a broken database should
			// not block an export.
			fmt.Fprintln(os.Stderr, WarningStyle.Render(fmt.Sprintf("history disabled: %v", err)))
		} else {
			coordCfg.RunLog = store
		}
	}

	return coordinator.New(coordCfg)
}

// printPlan shows what an export would do without fetching bodies.
func printPlan(ctx context.Context, coord *coordinator.Coordinator, opts coordinator.Options, args Args) error {
	items, err := coord.Plan(ctx, opts)
	if err != nil {
		return err
	}

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("Export plan"))
	}
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = DimStyle.Render("(untitled)")
		}
		fmt.Printf("  %s  %s\n", it.ID, title)
	}
	fmt.Printf("\n%d conversation(s) would be exported\n", len(items))
	return nil
}

func printResult(result *coordinator.Result, args Args) {
	if args.Quiet {
		fmt.Println(result.ArchivePath)
		return
	}

	fmt.Println(SuccessStyle.Render("Export complete"))
	fmt.Printf("%s %d\n", LabelStyle.Render("Exported:"), result.Exported)
	if result.Failed > 0 {
		fmt.Printf("%s %s\n", LabelStyle.Render("Failed:"),
			WarningStyle.Render(fmt.Sprintf("%d (see summary.txt in the archive)", result.Failed)))
	}
	if result.Empty > 0 {
		fmt.Printf("%s %d\n", LabelStyle.Render("Empty (excluded):"), result.Empty)
	}
	fmt.Printf("%s %s\n", LabelStyle.Render("Archive:"), ValueStyle.Render(result.ArchivePath))
}
