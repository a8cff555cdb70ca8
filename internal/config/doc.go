// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for t3chat.
//
// Configuration lives in a single TOML file with sensible defaults,
// environment variable overrides, and validation. A watcher reloads
// the file while the app runs.
//
// # Configuration Precedence
//
// Configuration is resolved from (in order of precedence):
//   - Environment variables (T3CHAT_*)
//   - ~/.t3chat/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.Completion.Model
//	theme := cfg.UI.Theme
package config
