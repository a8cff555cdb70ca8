// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/Onrion/t3-cloneathon/internal/config"
)

// HandleConfig runs the config subcommands: show, path, init.
func HandleConfig(args Args) int {
	sub := ""
	if len(args.Raw) > 0 {
		sub = args.Raw[0]
	}

	switch sub {
	case "show", "":
		return configShow(args)
	case "path":
		path, err := configPath(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println(path)
		return 0
	case "init":
		return configInit(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", sub)
		return 1
	}
}

func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPath()
}

// configShow prints the effective configuration with secrets masked.
func configShow(args Args) int {
	path, err := configPath(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg.Completion.APIKey = maskKey(cfg.Completion.APIKey)
	cfg.Store.APIKey = maskKey(cfg.Store.APIKey)
	cfg.Identity.APIKey = maskKey(cfg.Identity.APIKey)
	cfg.Identity.SessionToken = maskKey(cfg.Identity.SessionToken)

	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// configInit writes a default config file, refusing to clobber one.
func configInit(args Args) int {
	path, err := configPath(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "Config already exists at %s\n", path)
		return 1
	}
	if err := config.SaveToPath(config.Default(), path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return 0
}

// maskKey hides all but a hint of a credential.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
