// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-interactive commands
// of counsel, plus a line-based chat session for terminals where the
// full-screen interface is unwanted.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdPatients:
//	    err = cli.HandlePatients(ctx, os.Stdout, client, args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(ctx, client, cfg, args)
//	}
//	if err != nil {
//	    cli.DisplayError(os.Stderr, cmd.String(), err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// Handlers write to the io.Writer they are given and return errors instead
// of printing them. With --json every handler writes exactly one
// JSONResponse.
package cli
