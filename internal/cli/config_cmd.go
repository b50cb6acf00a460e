// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/daryllundy/chatgpt-exporter/internal/config"
)

// HandleConfig implements `config show` and `config set KEY VALUE`.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow()
	case "set":
		return configSet(args.ConfigKey, args.ConfigVal)
	default:
		return fmt.Errorf("unknown config subcommand %q (use show or set)", args.Subcommand)
	}
}

func configShow() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("Configuration"))
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		if value == "" {
			value = DimStyle.Render("(unset)")
		} else {
			value = ValueStyle.Render(value)
		}
		fmt.Printf("  %s = %s\n", key, value)
	}

	if path, err := config.ConfigPathTOML(); err == nil {
		fmt.Println("\n" + DimStyle.Render("file: "+path))
	}
	return nil
}

func configSet(key, value string) error {
	if key == "" {
		return errors.New("config set requires a key and a value")
	}
	if value == "" {
		return fmt.Errorf("config set %s requires a value", key)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(SuccessStyle.Render("updated ") + key)
	return nil
}
