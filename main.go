// t3chat - a terminal chat client backed by a hosted document store
// and the Gemini completion endpoint.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Onrion/t3-cloneathon/internal/chatsync"
	"github.com/Onrion/t3-cloneathon/internal/cli"
	"github.com/Onrion/t3-cloneathon/internal/config"
	"github.com/Onrion/t3-cloneathon/internal/gemini"
	"github.com/Onrion/t3-cloneathon/internal/identity"
	"github.com/Onrion/t3-cloneathon/internal/logging"
	"github.com/Onrion/t3-cloneathon/internal/pipeline"
	"github.com/Onrion/t3-cloneathon/internal/store"
	"github.com/Onrion/t3-cloneathon/internal/store/restdoc"
	"github.com/Onrion/t3-cloneathon/internal/ui/chat"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// resolveTimeout bounds startup identity resolution.
const resolveTimeout = 30 * time.Second

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		os.Exit(runTUI(args))
	case cli.CmdConfig:
		os.Exit(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}
}

func runTUI(args cli.Args) int {
	cfg, cfgPath, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log, err := openLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer log.Sync()

	log.Info("starting t3chat",
		zap.String("version", Version),
		zap.Bool("offline", cfg.Offline))

	// Backends: hosted services, or fully in-memory when offline.
	var provider identity.Provider
	var st store.Store
	if cfg.Offline {
		provider = identity.NewMemProvider()
		st = store.NewMemStore()
	} else {
		provider = identity.NewRESTProvider(cfg.Identity.BaseURL, cfg.Identity.APIKey).
			WithSessionToken(cfg.Identity.SessionToken)
		st = restdoc.NewClient(cfg.Store.BaseURL, cfg.Store.APIKey)
	}

	// Resolve who we are before anything touches the store; every
	// document path is partitioned by the identity id.
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	id, err := identity.NewSession(provider).Resolve(ctx)
	cancel()
	if err != nil {
		log.Error("identity resolution failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: could not establish a session: %v\n", err)
		return 1
	}
	log.Info("session resolved",
		zap.String("identity", id.ID), zap.Bool("anonymous", id.Anonymous))

	completion := gemini.NewClient(cfg.Completion.APIKey).
		WithBaseURL(cfg.Completion.BaseURL).
		WithModel(cfg.Completion.Model).
		WithTimeout(time.Duration(cfg.Completion.TimeoutSecs) * time.Second)

	// Sync events are forwarded into the Bubble Tea program once it is
	// running; earlier events land in the buffer and replay on start.
	events := make(chan chatsync.Event, 64)
	notify := chatsync.Notify(func(ev chatsync.Event) {
		events <- ev
	})

	threads := chatsync.NewThreadSync(st, cfg.Store.AppID, id, notify, log)
	messages := chatsync.NewMessageSync(st, cfg.Store.AppID, id, notify, log)
	sender := pipeline.NewSender(st, cfg.Store.AppID, id, completion, log)

	if err := threads.Start(context.Background()); err != nil {
		log.Error("thread sync failed to start", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: could not subscribe to chats: %v\n", err)
		return 1
	}
	defer threads.Stop()
	defer messages.Stop()

	m := chat.New(cfg, id, threads, messages, sender, log)
	program := tea.NewProgram(m, tea.WithAltScreen())

	// Pump sync events into the program.
	go func() {
		for ev := range events {
			program.Send(chat.SyncMsg{Event: ev})
		}
	}()

	// Hot-reload the config file while running.
	if watcher, err := config.NewWatcher(cfgPath); err == nil {
		defer watcher.Close()
		go func() {
			for reloaded := range watcher.Changes() {
				program.Send(chat.ConfigReloadedMsg{Config: reloaded})
			}
		}()
	} else {
		log.Warn("config watcher unavailable", zap.Error(err))
	}

	if _, err := program.Run(); err != nil {
		log.Error("program exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	log.Info("t3chat exited")
	return 0
}

// loadConfig loads the config file and applies CLI overrides.
func loadConfig(args cli.Args) (*config.Config, string, error) {
	path := args.ConfigPath
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, "", err
	}

	if args.Offline {
		cfg.Offline = true
	}
	if args.Debug {
		cfg.Log.Debug = true
	}
	if args.Model != "" {
		cfg.Completion.Model = args.Model
	}
	return cfg, path, nil
}

func openLogger(cfg *config.Config) (*zap.Logger, error) {
	path := cfg.Log.Path
	if path == "" {
		var err error
		path, err = config.DefaultLogPath()
		if err != nil {
			return nil, err
		}
	}
	return logging.New(path, cfg.Log.Debug)
}
