// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kimi implements the HTTP client for the Kimi conversational API.
//
// The API is session-oriented: a conversation is created once, then each
// user turn streams back through a completion endpoint as newline-delimited
// JSON events. Requests may be sent directly or through a local proxy; the
// proxy is health-checked and the client falls back to direct access when
// it does not answer.
package kimi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/kimi-tui/internal/model"
	"github.com/jeranaias/kimi-tui/internal/stream"
)

// Configuration constants for the Kimi API.
const (
	// DefaultBaseURL is the base URL for direct API access.
	DefaultBaseURL = "https://kimi.moonshot.cn/api"

	// DefaultProxyEndpoint is the local proxy used when proxying is enabled.
	DefaultProxyEndpoint = "http://localhost:3000/kimi-proxy"

	// SessionTimeout bounds conversation creation requests.
	SessionTimeout = 10 * time.Second

	// StreamTimeout bounds a completion request until response headers
	// arrive. An open stream carries no deadline; only caller
	// cancellation interrupts the body read.
	StreamTimeout = 30 * time.Second

	// SuggestTimeout bounds follow-up prompt requests.
	SuggestTimeout = 10 * time.Second

	// HealthTimeout bounds proxy health checks. Short so startup stays fast.
	HealthTimeout = 3 * time.Second

	// MaxResponseSize is the maximum allowed unary response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// Model identifiers accepted by the API.
const (
	// ModelK1 is the reasoning model. Responses interleave thinking text
	// with the visible answer.
	ModelK1 = "k1"

	// ModelKimi is the standard model.
	ModelKimi = "kimi"
)

var (
	// Shared HTTP client with connection pooling for unary requests.
	// Per-operation deadlines come from request contexts.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}

	// sharedStreamingClient is used for streaming requests (no timeout,
	// context-controlled).
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// TYPES
// =============================================================================

// Session identifies a remote conversation. GroupID scopes follow-up
// prompt suggestions to one exchange within the session.
type Session struct {
	ID      string
	GroupID string
}

// chatMessage is the wire shape of one message in a request body.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// createSessionRequest is the body for conversation creation.
type createSessionRequest struct {
	Name     string        `json:"name"`
	BornFrom string        `json:"born_from"`
	Model    string        `json:"model"`
	Source   string        `json:"source"`
	Messages []chatMessage `json:"messages"`
}

// createSessionResponse is the body returned by conversation creation.
// Some deployments return conversation_id, others id.
type createSessionResponse struct {
	ConversationID string `json:"conversation_id"`
	ID             string `json:"id"`
	GroupID        string `json:"group_id"`
}

// completionRequest is the body for the completion stream endpoint.
type completionRequest struct {
	KimiplusID  string           `json:"kimiplus_id"`
	Extend      completionExtend `json:"extend"`
	Model       string           `json:"model"`
	UseResearch bool             `json:"use_research"`
	UseSearch   bool             `json:"use_search"`
	Messages    []chatMessage    `json:"messages"`
	Refs        []string         `json:"refs"`
	History     []string         `json:"history"`
	SceneLabels []string         `json:"scene_labels"`
}

type completionExtend struct {
	Sidebar bool `json:"sidebar"`
}

// suggestRequest is the body for the follow-up prompt endpoint.
type suggestRequest struct {
	ChatID    string `json:"chat_id"`
	GroupID   string `json:"group_id"`
	UseSearch bool   `json:"use_search"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with the Kimi API.
type Client struct {
	token         string
	baseURL       string
	proxyEndpoint string
	useProxy      bool

	// Caller identity headers. These are issued with the access token and
	// sent verbatim on every request.
	deviceID  string
	sessionID string
	trafficID string

	language string
	timezone string

	model       string
	useSearch   bool
	useResearch bool

	httpClient   *http.Client
	streamClient *http.Client

	// streamTimeout races completion requests to first headers.
	streamTimeout time.Duration

	// limiter throttles fire-and-forget suggestion fetches.
	limiter *rate.Limiter
}

// NewClient creates a client with the given access token.
//
// If the token is empty the client is still created but requests fail with
// ErrNotConfigured.
func NewClient(token string) *Client {
	return &Client{
		token:         strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")),
		baseURL:       DefaultBaseURL,
		proxyEndpoint: DefaultProxyEndpoint,
		language:      "en-US",
		timezone:      "UTC",
		model:         ModelK1,
		useSearch:     true,
		httpClient:    sharedHTTPClient,
		streamClient:  sharedStreamingClient,
		streamTimeout: StreamTimeout,
		limiter:       rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// WithBaseURL sets a custom base URL for direct access.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithProxy enables the local proxy. An empty endpoint keeps the default.
func (c *Client) WithProxy(endpoint string) *Client {
	c.useProxy = true
	if endpoint != "" {
		c.proxyEndpoint = strings.TrimSuffix(endpoint, "/")
	}
	return c
}

// WithIdentity sets the device, session, and traffic identifiers that
// accompany the access token.
func (c *Client) WithIdentity(deviceID, sessionID, trafficID string) *Client {
	c.deviceID = deviceID
	c.sessionID = sessionID
	c.trafficID = trafficID
	return c
}

// WithLanguage sets the x-language header value.
func (c *Client) WithLanguage(lang string) *Client {
	if lang != "" {
		c.language = lang
	}
	return c
}

// WithTimezone sets the r-timezone header value, an IANA zone name.
func (c *Client) WithTimezone(tz string) *Client {
	if tz != "" {
		c.timezone = tz
	}
	return c
}

// WithModel selects the model for new sessions and completions.
func (c *Client) WithModel(m string) *Client {
	if m == ModelK1 || m == ModelKimi {
		c.model = m
	}
	return c
}

// WithSearch toggles web search.
func (c *Client) WithSearch(enabled bool) *Client {
	c.useSearch = enabled
	return c
}

// WithResearch toggles research mode.
func (c *Client) WithResearch(enabled bool) *Client {
	c.useResearch = enabled
	return c
}

// WithHTTPClient replaces both transports. Test hook.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// WithSuggestionLimit replaces the suggestion rate limiter.
func (c *Client) WithSuggestionLimit(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// IsConfigured returns true if the client has an access token.
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// Model returns the selected model.
func (c *Client) Model() string {
	return c.model
}

// UsingProxy returns true while requests route through the local proxy.
func (c *Client) UsingProxy() bool {
	return c.useProxy
}

// TokenFingerprint returns a short hash of the token for display and
// logging. The token itself is never logged.
func (c *Client) TokenFingerprint() string {
	if c.token == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.token))
	return hex.EncodeToString(h[:4])
}

// endpoint returns the base for API paths, honoring the proxy switch.
func (c *Client) endpoint() string {
	if c.useProxy {
		return c.proxyEndpoint
	}
	return c.baseURL
}

// setHeaders sets the headers every API request carries.
func (c *Client) setHeaders(req *http.Request, streaming bool) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("x-msh-device-id", c.deviceID)
	req.Header.Set("x-msh-session-id", c.sessionID)
	req.Header.Set("x-traffic-id", c.trafficID)
	req.Header.Set("x-msh-platform", "web")
	req.Header.Set("x-language", c.language)
	req.Header.Set("r-timezone", c.timezone)
	if streaming {
		req.Header.Set("Accept", "text/event-stream")
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// CreateSession creates a remote conversation named after the first
// message and returns its identifiers.
func (c *Client) CreateSession(ctx context.Context, firstMessage string) (*Session, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	reqBody := createSessionRequest{
		Name:     model.DeriveTitle(firstMessage),
		BornFrom: "chat",
		Model:    c.model,
		Source:   "web",
		Messages: []chatMessage{{Role: "user", Content: firstMessage}},
	}

	ctx, cancel := context.WithTimeout(ctx, SessionTimeout)
	defer cancel()

	body, err := c.postJSON(ctx, c.endpoint()+"/chat", reqBody, "create session", SessionTimeout)
	if err != nil {
		return nil, err
	}

	var resp createSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding session response: %w", err)
	}

	id := resp.ConversationID
	if id == "" {
		id = resp.ID
	}
	if id == "" {
		return nil, errors.New("session response carried no conversation ID")
	}

	return &Session{ID: id, GroupID: resp.GroupID}, nil
}

// StreamCompletion sends one user turn and returns the raw response stream.
// StreamTimeout is raced against the request until response headers arrive;
// once the stream is open, only ctx cancellation interrupts the read. A slow
// but alive stream is never truncated. Closing the ReadCloser releases the
// request.
func (c *Client) StreamCompletion(ctx context.Context, sessionID, content string) (io.ReadCloser, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if sessionID == "" {
		return nil, errors.New("session ID required")
	}

	reqBody := completionRequest{
		KimiplusID:  "kimi",
		Extend:      completionExtend{Sidebar: true},
		Model:       c.model,
		UseResearch: c.useResearch,
		UseSearch:   c.useSearch,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		Refs:        []string{},
		History:     []string{},
		SceneLabels: []string{},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding completion request: %w", err)
	}

	// The header race: a timer cancels the request if headers have not
	// arrived in time. It is disarmed the moment Do returns, so the
	// deadline never reaches the body read.
	reqCtx, cancel := context.WithCancel(ctx)
	var timedOut atomic.Bool
	timer := time.AfterFunc(c.streamTimeout, func() {
		timedOut.Store(true)
		cancel()
	})

	url := fmt.Sprintf("%s/chat/%s/completion/stream", c.endpoint(), sessionID)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		timer.Stop()
		cancel()
		return nil, err
	}
	c.setHeaders(req, true)

	resp, err := c.streamClient.Do(req)
	timer.Stop()
	if err != nil {
		cancel()
		if timedOut.Load() {
			return nil, &TimeoutError{Op: "completion stream", Limit: c.streamTimeout, Err: context.DeadlineExceeded}
		}
		return nil, c.wrapTransportError(err, "completion stream", c.streamTimeout)
	}

	if resp.StatusCode != http.StatusOK {
		err := remoteError(resp)
		resp.Body.Close()
		cancel()
		return nil, err
	}

	return &streamBody{body: resp.Body, cancel: cancel}, nil
}

// streamBody ties the stream's request context to its Close.
type streamBody struct {
	body   io.ReadCloser
	cancel context.CancelFunc
}

func (s *streamBody) Read(p []byte) (int, error) { return s.body.Read(p) }

func (s *streamBody) Close() error {
	s.cancel()
	return s.body.Close()
}

// FetchSuggestions fetches follow-up prompt suggestions for one exchange.
// Calls are rate limited; a throttled call returns no prompts and no error
// so fire-and-forget callers can ignore it.
func (c *Client) FetchSuggestions(ctx context.Context, sessionID, groupID string) ([]string, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if sessionID == "" || groupID == "" {
		return nil, nil
	}
	if !c.limiter.Allow() {
		return nil, nil
	}

	reqBody := suggestRequest{
		ChatID:    sessionID,
		GroupID:   groupID,
		UseSearch: c.useSearch,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding suggestion request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, SuggestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint()+"/chat/recommend-prompt", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, true)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, c.wrapTransportError(err, "fetch suggestions", SuggestTimeout)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(resp)
	}

	return stream.CollectPrompts(resp.Body)
}

// CheckHealth probes the proxy. On failure the client switches itself to
// direct access and reports ErrProxyUnavailable so the caller can surface
// the fallback.
func (c *Client) CheckHealth(ctx context.Context) error {
	if !c.useProxy {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.proxyEndpoint+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.useProxy = false
		return fmt.Errorf("%w: %v", ErrProxyUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.useProxy = false
		return fmt.Errorf("%w: health check returned HTTP %d", ErrProxyUnavailable, resp.StatusCode)
	}

	return nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// postJSON performs a unary POST and returns the response body.
func (c *Client) postJSON(ctx context.Context, url string, reqBody any, op string, limit time.Duration) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, false)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrapTransportError(err, op, limit)
	}
	defer resp.Body.Close()

	// Response size limit prevents memory exhaustion.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	return body, nil
}

// wrapTransportError converts deadline expiry into a TimeoutError.
func (c *Client) wrapTransportError(err error, op string, limit time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Limit: limit, Err: err}
	}
	return err
}

// remoteError builds a RemoteError from a non-success response, capturing
// a bounded slice of the body as the message.
func remoteError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &RemoteError{
		Status:  resp.StatusCode,
		Message: strings.TrimSpace(string(body)),
	}
}
