// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/counsel-tui/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeEncode
	ErrTypeDecode
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeEncode:
		return "encode"
	case ErrTypeDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUnreachable = &ClientError{Type: ErrTypeConnection, Message: "backend is not reachable"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the API root including the /api prefix
	// (default: http://127.0.0.1:8000/api)
	BaseURL string

	// Timeout for a single request (default: 60s)
	Timeout time.Duration

	// RequestsPerSecond caps the outgoing request rate. Zero means no limit.
	RequestsPerSecond float64

	// Burst is the number of requests allowed at once when limited (default: 1)
	Burst int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:8000/api",
		Timeout: 60 * time.Second,
	}
}

// =============================================================================
// GATEWAY
// =============================================================================

// Gateway is the set of backend capabilities the client uses.
// *Client implements it; tests substitute fakes.
type Gateway interface {
	ListPatients(ctx context.Context) ([]model.Patient, error)
	CreatePatient(ctx context.Context, in model.PatientInput) (model.Patient, error)
	UpdatePatient(ctx context.Context, id string, in model.PatientInput) (model.Patient, error)
	DeletePatient(ctx context.Context, id string) error

	ListThreads(ctx context.Context) ([]model.Thread, error)
	CreateThread(ctx context.Context, title string) (model.Thread, error)
	ThreadMessages(ctx context.Context, threadID string) ([]model.Exchange, error)

	SendChat(ctx context.Context, message, patientID, threadID string) (ChatResponse, error)
	SearchDatabase(ctx context.Context, query string) (SearchResponse, error)
	StoreSearch(ctx context.Context, threadID, message, response string) error
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the backend API.
// Every method performs exactly one HTTP call: no retries, no caching.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: cfg.Server.BaseURL()})
//	patients, err := client.ListPatients(ctx)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Gateway = (*Client)(nil)

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.Burst < 1 {
		config.Burst = 1
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(limit, config.Burst),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// PATIENTS
// =============================================================================

// ListPatients fetches every patient.
func (c *Client) ListPatients(ctx context.Context) ([]model.Patient, error) {
	var patients []model.Patient
	if err := c.do(ctx, http.MethodGet, "/patients/", nil, nil, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// CreatePatient creates a patient and returns the stored record.
func (c *Client) CreatePatient(ctx context.Context, in model.PatientInput) (model.Patient, error) {
	var p model.Patient
	err := c.do(ctx, http.MethodPost, "/patients/", nil, in, &p)
	return p, err
}

// UpdatePatient replaces the patient with id and returns the stored record.
func (c *Client) UpdatePatient(ctx context.Context, id string, in model.PatientInput) (model.Patient, error) {
	var p model.Patient
	err := c.do(ctx, http.MethodPut, "/patients/", url.Values{"id": {id}}, in, &p)
	return p, err
}

// DeletePatient deletes the patient with id. Any 2xx body counts as success.
func (c *Client) DeletePatient(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/patients/", url.Values{"id": {id}}, nil, nil)
}

// =============================================================================
// THREADS
// =============================================================================

// ListThreads fetches every thread.
func (c *Client) ListThreads(ctx context.Context) ([]model.Thread, error) {
	var threads []model.Thread
	if err := c.do(ctx, http.MethodGet, "/create-thread/", nil, nil, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// CreateThread creates a thread with the given title.
func (c *Client) CreateThread(ctx context.Context, title string) (model.Thread, error) {
	var t model.Thread
	err := c.do(ctx, http.MethodPost, "/create-thread/", nil, CreateThreadRequest{Title: title}, &t)
	return t, err
}

// ThreadMessages fetches the stored exchanges of a thread, oldest first.
func (c *Client) ThreadMessages(ctx context.Context, threadID string) ([]model.Exchange, error) {
	var exchanges []model.Exchange
	if err := c.do(ctx, http.MethodGet, "/create-thread/", url.Values{"thread_id": {threadID}}, nil, &exchanges); err != nil {
		return nil, err
	}
	return exchanges, nil
}

// =============================================================================
// CHAT AND SEARCH
// =============================================================================

// SendChat posts a counseling message and returns the assistant's answer.
func (c *Client) SendChat(ctx context.Context, message, patientID, threadID string) (ChatResponse, error) {
	var resp ChatResponse
	err := c.do(ctx, http.MethodPost, "/chat/", nil, ChatRequest{
		Message:   message,
		PatientID: patientID,
		ThreadID:  threadID,
	}, &resp)
	return resp, err
}

// SearchDatabase queries the counseling transcript database.
func (c *Client) SearchDatabase(ctx context.Context, query string) (SearchResponse, error) {
	var resp SearchResponse
	err := c.do(ctx, http.MethodPost, "/search-database/", nil, SearchRequest{
		Type:  SearchTypeDatabase,
		Query: query,
	}, &resp)
	return resp, err
}

// StoreSearch records a search exchange in a thread. The response body is
// backend-defined and ignored.
func (c *Client) StoreSearch(ctx context.Context, threadID, message, response string) error {
	return c.do(ctx, http.MethodPost, "/storeSearches/", nil, StoreSearchRequest{
		ThreadID: threadID,
		Message:  message,
		Response: response,
	}, nil)
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request. body is JSON-encoded when non-nil; out is decoded
// from the response when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return &ClientError{Type: ErrTypeConnection, Message: "request cancelled", Cause: err}
		}
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out waiting for rate limit", Cause: err}
	}

	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeEncode, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("API_ERROR | method=%s path=%s err=%v", method, path, err)
		if isTimeout(err) {
			return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
		}
		return &ClientError{Type: ErrTypeConnection, Message: "backend is not reachable", Cause: err}
	}
	defer drainAndClose(resp.Body)

	log.Printf("API | method=%s path=%s status=%d duration=%s", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := fmt.Sprintf("%s %s failed: %s", method, path, resp.Status)
		if s := strings.TrimSpace(string(snippet)); s != "" {
			msg += " (" + s + ")"
		}
		return &ClientError{Type: ErrTypeStatus, Message: msg, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeDecode, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return hasType(err, ErrTypeTimeout)
}

// IsConnection checks if an error indicates the backend could not be reached.
func IsConnection(err error) bool {
	return hasType(err, ErrTypeConnection)
}

// IsStatus checks if an error is a non-2xx response, optionally with a specific code.
// Pass 0 to match any status.
func IsStatus(err error, code int) bool {
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.Type != ErrTypeStatus {
		return false
	}
	return code == 0 || clientErr.StatusCode == code
}

func hasType(err error, t ErrorType) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == t
	}
	return false
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
