// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the counseling assistant backend.
//
// Every backend capability is one method on Client. A method performs a
// single request against the configured base URL (which already carries the
// /api prefix), decodes the JSON body and returns it. Non-2xx responses and
// transport failures come back as *ClientError.
//
// # Key Types
//
//   - Client: HTTP client for the backend API
//   - Gateway: the interface Client satisfies, used by the conversation layer
//   - ClientError: typed error with ErrorType and optional status code
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{
//	    BaseURL: cfg.Server.BaseURL(),
//	    Timeout: cfg.Server.RequestTimeout(),
//	})
//	threads, err := client.ListThreads(ctx)
//	if api.IsConnection(err) {
//	    // backend down
//	}
//
// No retries, caching or pagination are performed.
package api
