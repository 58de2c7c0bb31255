// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kimi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jeranaias/kimi-tui/internal/stream"
)

// testClient builds a configured client pointed at a test server.
func testClient(serverURL string) *Client {
	return NewClient("tok-123").
		WithBaseURL(serverURL).
		WithIdentity("dev-1", "sess-1", "traf-1").
		WithTimezone("Europe/Paris")
}

// =============================================================================
// SESSION CREATION TESTS
// =============================================================================

func TestCreateSession(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"conversation_id":"conv-9","group_id":"grp-4"}`))
	}))
	defer server.Close()

	session, err := testClient(server.URL).CreateSession(context.Background(), "What is the tallest mountain?")
	require.NoError(t, err)
	require.Equal(t, "conv-9", session.ID)
	require.Equal(t, "grp-4", session.GroupID)

	require.Equal(t, "/chat", gotPath)
	require.Equal(t, "Bearer tok-123", gotHeaders.Get("Authorization"))
	require.Equal(t, "dev-1", gotHeaders.Get("x-msh-device-id"))
	require.Equal(t, "sess-1", gotHeaders.Get("x-msh-session-id"))
	require.Equal(t, "traf-1", gotHeaders.Get("x-traffic-id"))
	require.Equal(t, "web", gotHeaders.Get("x-msh-platform"))
	require.Equal(t, "en-US", gotHeaders.Get("x-language"))
	require.Equal(t, "Europe/Paris", gotHeaders.Get("r-timezone"))

	require.Equal(t, "chat", gotBody["born_from"])
	require.Equal(t, "k1", gotBody["model"])
	require.Equal(t, "web", gotBody["source"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	require.Equal(t, "user", first["role"])
	require.Equal(t, "What is the tallest mountain?", first["content"])
}

func TestCreateSession_NameTruncated(t *testing.T) {
	var gotName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotName = body["name"].(string)
		w.Write([]byte(`{"id":"c1","group_id":"g1"}`))
	}))
	defer server.Close()

	long := strings.Repeat("a", 31)
	_, err := testClient(server.URL).CreateSession(context.Background(), long)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("a", 30)+"...", gotName)
}

func TestCreateSession_FallsBackToID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"plain-id","group_id":"g"}`))
	}))
	defer server.Close()

	session, err := testClient(server.URL).CreateSession(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "plain-id", session.ID)
}

func TestCreateSession_NoID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"group_id":"g"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).CreateSession(context.Background(), "hi")
	require.Error(t, err)
}

func TestCreateSession_NotConfigured(t *testing.T) {
	_, err := NewClient("").CreateSession(context.Background(), "hi")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateSession_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`token expired`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).CreateSession(context.Background(), "hi")
	require.ErrorIs(t, err, ErrAuthFailed)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, http.StatusUnauthorized, remote.Status)
	require.Contains(t, remote.Message, "token expired")
}

// =============================================================================
// COMPLETION STREAM TESTS
// =============================================================================

func TestStreamCompletion(t *testing.T) {
	var gotPath, gotAccept string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("data: {\"event\":\"cmpl\",\"text\":\"hello\"}\n"))
	}))
	defer server.Close()

	client := testClient(server.URL).WithSearch(true).WithResearch(true)
	body, err := client.StreamCompletion(context.Background(), "conv-9", "say hello")
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "hello")

	require.Equal(t, "/chat/conv-9/completion/stream", gotPath)
	require.Equal(t, "text/event-stream", gotAccept)
	require.Equal(t, "kimi", gotBody["kimiplus_id"])
	require.Equal(t, true, gotBody["use_search"])
	require.Equal(t, true, gotBody["use_research"])
	require.Equal(t, map[string]any{"sidebar": true}, gotBody["extend"])
	require.Equal(t, []any{}, gotBody["refs"])
	require.Equal(t, []any{}, gotBody["history"])
	require.Equal(t, []any{}, gotBody["scene_labels"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
}

func TestStreamCompletion_SlowBodyIsNotDeadlined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"event\":\"cmpl\",\"text\":\"Hello\"}\n"))
		w.(http.Flusher).Flush()
		// Stall well past the header deadline, then keep streaming.
		time.Sleep(150 * time.Millisecond)
		w.Write([]byte("data: {\"event\":\"cmpl\",\"text\":\" world\"}\n"))
	}))
	defer server.Close()

	client := testClient(server.URL)
	client.streamTimeout = 50 * time.Millisecond

	body, err := client.StreamCompletion(context.Background(), "c1", "hi")
	require.NoError(t, err)
	defer body.Close()

	result, err := stream.NewAssembler(stream.NopSink).Run(body)
	require.NoError(t, err)
	require.Equal(t, "Hello world", result.Message.Content)
}

func TestStreamCompletion_SlowHeadersTimeOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := testClient(server.URL)
	client.streamTimeout = 50 * time.Millisecond

	_, err := client.StreamCompletion(context.Background(), "c1", "hi")
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
}

func TestStreamCompletion_CallerCancelInterruptsRead(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {\"event\":\"cmpl\",\"text\":\"partial\"}\n"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	body, err := testClient(server.URL).StreamCompletion(ctx, "c1", "hi")
	require.NoError(t, err)
	defer body.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = io.ReadAll(body)
	require.Error(t, err)
}

func TestStreamCompletion_RequiresSession(t *testing.T) {
	_, err := NewClient("tok").StreamCompletion(context.Background(), "", "hi")
	require.Error(t, err)
}

func TestStreamCompletion_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).StreamCompletion(context.Background(), "c1", "hi")
	require.ErrorIs(t, err, ErrRateLimited)
}

// =============================================================================
// SUGGESTION TESTS
// =============================================================================

func TestFetchSuggestions(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/recommend-prompt", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("data: {\"event\":\"chat_prompt\",\"text\":\"First?\"}\n" +
			"data: {\"event\":\"chat_prompt\",\"text\":\"Second?\"}\n"))
	}))
	defer server.Close()

	prompts, err := testClient(server.URL).FetchSuggestions(context.Background(), "conv-9", "grp-4")
	require.NoError(t, err)
	require.Equal(t, []string{"First?", "Second?"}, prompts)

	require.Equal(t, "conv-9", gotBody["chat_id"])
	require.Equal(t, "grp-4", gotBody["group_id"])
	require.Equal(t, true, gotBody["use_search"])
}

func TestFetchSuggestions_MissingIdentifiers(t *testing.T) {
	client := NewClient("tok")
	prompts, err := client.FetchSuggestions(context.Background(), "", "g")
	require.NoError(t, err)
	require.Nil(t, prompts)

	prompts, err = client.FetchSuggestions(context.Background(), "c", "")
	require.NoError(t, err)
	require.Nil(t, prompts)
}

func TestFetchSuggestions_Throttled(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("data: {\"event\":\"chat_prompt\",\"text\":\"Q\"}\n"))
	}))
	defer server.Close()

	client := testClient(server.URL).
		WithSuggestionLimit(rate.NewLimiter(rate.Every(time.Hour), 1))

	prompts, err := client.FetchSuggestions(context.Background(), "c", "g")
	require.NoError(t, err)
	require.Len(t, prompts, 1)

	// Second call inside the limit window is silently skipped.
	prompts, err = client.FetchSuggestions(context.Background(), "c", "g")
	require.NoError(t, err)
	require.Nil(t, prompts)
	require.Equal(t, 1, calls)
}

// =============================================================================
// PROXY TESTS
// =============================================================================

func TestCheckHealth_DirectAccessSkipsCheck(t *testing.T) {
	require.NoError(t, NewClient("tok").CheckHealth(context.Background()))
}

func TestCheckHealth_ProxyAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient("tok").WithProxy(server.URL)
	require.NoError(t, client.CheckHealth(context.Background()))
	require.True(t, client.UsingProxy())
}

func TestCheckHealth_ProxyDownFallsBackToDirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("tok").WithProxy(server.URL)
	err := client.CheckHealth(context.Background())
	require.ErrorIs(t, err, ErrProxyUnavailable)
	require.False(t, client.UsingProxy())
}

func TestProxyRouting(t *testing.T) {
	proxied := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)
		w.Write([]byte(`{"id":"via-proxy","group_id":"g"}`))
	}))
	defer proxied.Close()

	client := NewClient("tok").WithProxy(proxied.URL)
	session, err := client.CreateSession(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "via-proxy", session.ID)
}

// =============================================================================
// ERROR MAPPING TESTS
// =============================================================================

func TestRemoteError_SentinelMapping(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{401, ErrAuthFailed},
		{403, ErrAuthFailed},
		{404, ErrSessionNotFound},
		{429, ErrRateLimited},
	}
	for _, tc := range tests {
		err := &RemoteError{Status: tc.status}
		require.ErrorIs(t, err, tc.sentinel, "status %d", tc.status)
	}

	require.False(t, errors.Is(&RemoteError{Status: 500}, ErrAuthFailed))
}

func TestTokenFingerprint(t *testing.T) {
	client := NewClient("secret-token")
	fp := client.TokenFingerprint()
	require.Len(t, fp, 8)
	require.NotContains(t, fp, "secret")
	require.Equal(t, "none", NewClient("").TokenFingerprint())
}

func TestNewClient_StripsBearerPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-xyz", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"c","group_id":"g"}`))
	}))
	defer server.Close()

	_, err := NewClient("Bearer tok-xyz").WithBaseURL(server.URL).CreateSession(context.Background(), "hi")
	require.NoError(t, err)
}
