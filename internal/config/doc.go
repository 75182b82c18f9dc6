// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for counsel.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Backend scheme, host, port and request timeout
//   - StreamingConfig: Chunk size, tick interval and no-response guard
//   - UIConfig: Theme and sidebar layout
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (COUNSEL_*)
//   - .env in the working directory (does not override the real environment)
//   - ~/.counsel/config.toml
//   - ~/.counsel/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: cfg.Server.BaseURL()})
package config
