// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// HandlePreview renders an exported Markdown artifact in the terminal.
func HandlePreview(args Args) error {
	if args.File == "" {
		return errors.New("preview requires a Markdown file path")
	}
	if !strings.HasSuffix(args.File, ".md") {
		return fmt.Errorf("preview only renders Markdown artifacts, got %s", args.File)
	}

	content, err := os.ReadFile(args.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", args.File, err)
	}

	if !ColorsEnabled() {
		// Piped output gets the raw Markdown.
		fmt.Print(string(content))
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	out, err := renderer.Render(string(content))
	if err != nil {
		return fmt.Errorf("render %s: %w", args.File, err)
	}
	fmt.Print(out)
	return nil
}
