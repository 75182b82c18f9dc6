// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The config command.
//
// Examples:
//   counsel config show             Effective configuration as TOML
//   counsel config show --json      Effective configuration as JSON
//   counsel config path             Path of the config file
//   counsel config init             Write ~/.counsel/config.toml
//   counsel config init --path FILE Write the defaults somewhere else
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/counsel-tui/internal/config"
)

// ResolveConfigPath returns the explicit --config path or the default
// TOML location.
func ResolveConfigPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// LoadConfig loads the configuration the way every command sees it: from
// --config when given, from the default locations otherwise. A broken
// default file is logged and defaults are used; a broken explicit file is an
// error.
func LoadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
		config.SetGlobal(cfg)
		return cfg, nil
	}
	return config.Global(), nil
}

// HandleConfig handles "counsel config [show|path|init]".
func HandleConfig(w io.Writer, cfg *config.Config, args Args) error {
	p := NewArgParser(args.Raw)
	jsonMode := args.JSON || p.BoolFlag("json")

	switch sub := p.Subcommand(); sub {
	case "", "show":
		if jsonMode {
			return NewJSONResponse("config show", cfg).Print(w)
		}
		return toml.NewEncoder(w).Encode(cfg)

	case "path":
		path, err := ResolveConfigPath(args)
		if err != nil {
			return NewCommandError("config", "path", "could not resolve config path", err)
		}
		_, statErr := os.Stat(path)
		exists := statErr == nil
		if jsonMode {
			return NewJSONResponse("config path", ConfigPathData{Path: path, Exists: exists}).Print(w)
		}
		fmt.Fprintln(w, path)
		if !exists {
			fmt.Fprintln(w, DimStyle.Render("(not created yet, run 'counsel config init')"))
		}
		return nil

	case "init":
		path := p.Flag("path")
		if path == "" {
			var err error
			if path, err = ResolveConfigPath(args); err != nil {
				return NewCommandError("config", "init", "could not resolve config path", err)
			}
		}
		if err := config.WriteDefault(path); err != nil {
			if errors.Is(err, config.ErrConfigExists) {
				return err
			}
			return NewCommandError("config", "init", "could not write config", err)
		}
		if jsonMode {
			return NewJSONResponse("config init", ConfigPathData{Path: path, Exists: true}).Print(w)
		}
		fmt.Fprintf(w, "%s Wrote default configuration to %s\n", SuccessStyle.Render("[OK]"), path)
		return nil

	default:
		return &ValidationError{Field: "subcommand", Value: sub, Reason: "expected show, path or init", Example: "counsel config show"}
	}
}
