// counsel - A terminal client for the counseling assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/counsel-tui/internal/api"
	"github.com/jeranaias/counsel-tui/internal/cli"
	"github.com/jeranaias/counsel-tui/internal/config"
	"github.com/jeranaias/counsel-tui/internal/ui/chat"
	"github.com/jeranaias/counsel-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args := cli.Parse()
	configureLogging(args)

	err := dispatch(cmd, args)
	if err == nil {
		return cli.ExitSuccess
	}

	// JSON consumers read stdout; humans read stderr.
	out := io.Writer(os.Stderr)
	if args.JSON {
		out = os.Stdout
	}
	cli.DisplayError(out, cmd.String(), err, args.JSON)
	return cli.GetExitCode(err)
}

// dispatch routes a parsed command to its handler.
func dispatch(cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdVersion:
		return cli.HandleVersion(os.Stdout, args)
	case cli.CmdHelp:
		cli.HandleHelp(os.Stdout)
		return nil
	case cli.CmdUnknown:
		return cli.UnknownCommand(args)
	}

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return err
	}
	client := newClient(cfg)

	// Interactive modes handle Ctrl+C themselves.
	switch cmd {
	case cli.CmdTUI:
		return runTUI(cfg, client, args)
	case cli.CmdChat:
		return cli.HandleChat(context.Background(), client, cfg, args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case cli.CmdPatients:
		return cli.HandlePatients(ctx, os.Stdout, client, args)
	case cli.CmdThreads:
		return cli.HandleThreads(ctx, os.Stdout, client, args)
	case cli.CmdStatus:
		return cli.HandleStatus(ctx, os.Stdout, cli.StatusTarget{
			Gateway:    client,
			BaseURL:    client.BaseURL(),
			ConfigPath: existingConfigPath(args),
		}, args)
	case cli.CmdConfig:
		return cli.HandleConfig(os.Stdout, cfg, args)
	}
	return cli.UnknownCommand(args)
}

// configureLogging sends diagnostics to stderr with --verbose and drops them
// otherwise. The TUI redirects them again once it knows the log file.
func configureLogging(args cli.Args) {
	if args.Verbose {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.Ltime | log.Lmicroseconds)
		return
	}
	log.SetOutput(io.Discard)
}

func newClient(cfg *config.Config) *api.Client {
	return api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           cfg.Server.BaseURL(),
		Timeout:           cfg.Server.RequestTimeout(),
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
	})
}

// existingConfigPath returns the config file in use, or "" when running on
// defaults.
func existingConfigPath(args cli.Args) string {
	path, err := cli.ResolveConfigPath(args)
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// =============================================================================
// FULL-SCREEN INTERFACE
// =============================================================================

func runTUI(cfg *config.Config, client *api.Client, args cli.Args) error {
	if err := cli.RequiresTTY("start the interface"); err != nil {
		return err
	}

	// The alternate screen owns stdout; logs go to the configured file or nowhere.
	if cfg.Log.File != "" {
		f, err := tea.LogToFile(cfg.Log.File, "counsel")
		if err != nil {
			return cli.NewCommandError("tui", "start", "could not open log file", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	log.Printf("START | version=%s backend=%s", Version, client.BaseURL())

	m := chat.New(chat.Options{
		Gateway: client,
		Config:  cfg,
		Theme:   styles.NewTheme(cfg.UI.Theme),
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	if path := existingConfigPath(args); path != "" {
		watcher, err := config.NewWatcher(path, config.DefaultReloadDebounce, func(next *config.Config) {
			config.SetGlobal(next)
			p.Send(chat.ConfigReloadedMsg{Config: next})
		})
		if err != nil {
			log.Printf("CONFIG_WATCH_FAILED | path=%s err=%v", path, err)
		} else if err := watcher.Watch(); err != nil {
			log.Printf("CONFIG_WATCH_FAILED | path=%s err=%v", path, err)
			watcher.Close()
		} else {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		return cli.NewCommandError("tui", "run", "interface stopped", err)
	}
	log.Printf("EXIT | clean")
	return nil
}
