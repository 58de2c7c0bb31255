// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat orchestrates conversations: it owns the API client, the
// conversation store, the prompt cache, and the render sink, and drives
// one send/receive cycle at a time.
package chat

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/jeranaias/kimi-tui/internal/kimi"
	"github.com/jeranaias/kimi-tui/internal/model"
	"github.com/jeranaias/kimi-tui/internal/storage"
	"github.com/jeranaias/kimi-tui/internal/stream"
	"github.com/jeranaias/kimi-tui/internal/util"
)

// ErrorReply is appended as an assistant turn when a send fails before
// any response text arrived.
const ErrorReply = "I apologize, but there was an error processing your request. Please try again later."

var (
	// ErrBusy indicates a send is already in flight. Streams are never
	// canceled; a new send waits for the previous one to finish.
	ErrBusy = errors.New("a message is already being processed")

	// ErrEmptyMessage indicates the input was empty after normalization.
	ErrEmptyMessage = errors.New("message is empty")
)

// API is the remote surface the controller depends on.
type API interface {
	CreateSession(ctx context.Context, firstMessage string) (*kimi.Session, error)
	StreamCompletion(ctx context.Context, sessionID, content string) (io.ReadCloser, error)
	FetchSuggestions(ctx context.Context, sessionID, groupID string) ([]string, error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the session context for one running client. All state
// lives here, nothing is ambient.
type Controller struct {
	client API
	store  *storage.ConversationStore
	cache  *storage.PromptCache
	sink   stream.Sink

	// inFlight is the single-flight guard for Send.
	inFlight atomic.Bool

	current *model.Conversation

	// onSuggestions, when set, receives follow-up prompts fetched after
	// a completed turn. Called from a background goroutine.
	onSuggestions func([]string)
}

// NewController creates a controller. A nil sink discards render patches.
func NewController(client API, store *storage.ConversationStore, cache *storage.PromptCache, sink stream.Sink) *Controller {
	if sink == nil {
		sink = stream.NopSink
	}
	return &Controller{
		client: client,
		store:  store,
		cache:  cache,
		sink:   sink,
	}
}

// OnSuggestions registers the receiver for fetched follow-up prompts.
func (c *Controller) OnSuggestions(fn func([]string)) {
	c.onSuggestions = fn
}

// Current returns the active conversation, creating one if none exists.
func (c *Controller) Current() *model.Conversation {
	if c.current == nil {
		c.current = model.NewConversation()
	}
	return c.current
}

// =============================================================================
// SEND
// =============================================================================

// Send runs one full send/receive cycle: persist the user turn, create
// the remote session on the first message, stream the response through
// the assembler into the sink, and persist the assembled assistant turn.
//
// A transport failure mid-stream persists whatever was assembled before
// the failure and still returns the error. Failures before any response
// text append ErrorReply as an assistant turn instead.
func (c *Controller) Send(ctx context.Context, text string) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.inFlight.Store(false)

	text = util.NormalizeInput(text)
	if text == "" {
		return ErrEmptyMessage
	}

	conv := c.Current()
	conv.AddUserMessage(text)
	c.persist(conv)

	if !conv.HasSession() {
		session, err := c.client.CreateSession(ctx, text)
		if err != nil {
			c.appendErrorReply(conv)
			return err
		}
		conv.BindSession(session.ID)
		conv.BindGroup(session.GroupID)
		c.persist(conv)
		c.fetchSuggestions(conv)
	}

	body, err := c.client.StreamCompletion(ctx, conv.SessionID, text)
	if err != nil {
		c.appendErrorReply(conv)
		return err
	}
	defer body.Close()

	result, err := stream.NewAssembler(c.sink).Run(body)
	if err != nil {
		// Keep the partial response; losing it helps nobody.
		var readErr *stream.ReadError
		if errors.As(err, &readErr) && readErr.Partial != nil && !readErr.Partial.Message.IsEmpty() {
			c.appendResult(conv, readErr.Partial)
		}
		return err
	}

	c.appendResult(conv, result)
	c.fetchSuggestions(conv)
	return nil
}

// appendResult persists an assembled assistant message and any group ID
// the stream carried.
func (c *Controller) appendResult(conv *model.Conversation, result *stream.Result) {
	conv.BindGroup(result.GroupID)
	conv.AddMessage(result.Message)
	c.persist(conv)
}

// appendErrorReply records the failure as an assistant turn so resumed
// conversations show what happened.
func (c *Controller) appendErrorReply(conv *model.Conversation) {
	conv.AddAssistantMessage(ErrorReply)
	c.persist(conv)
}

// persist writes the conversation and the current pointer. Persistence
// failures are swallowed: the in-memory conversation stays authoritative
// for this run.
func (c *Controller) persist(conv *model.Conversation) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(conv); err != nil {
		return
	}
	_ = c.store.SetCurrent(conv.ID)
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// fetchSuggestions fetches follow-up prompts fire-and-forget, consulting
// the cache first. Failures are swallowed; suggestions are an enhancement.
func (c *Controller) fetchSuggestions(conv *model.Conversation) {
	if c.onSuggestions == nil || !conv.HasSession() || conv.GroupID == "" {
		return
	}
	sessionID, groupID := conv.SessionID, conv.GroupID

	if c.cache != nil {
		if prompts, ok := c.cache.Get(sessionID, groupID); ok {
			c.onSuggestions(prompts)
			return
		}
	}

	go func() {
		prompts, err := c.client.FetchSuggestions(context.Background(), sessionID, groupID)
		if err != nil || len(prompts) == 0 {
			return
		}
		if c.cache != nil {
			_ = c.cache.Put(sessionID, groupID, prompts)
		}
		c.onSuggestions(prompts)
	}()
}

// =============================================================================
// CONVERSATION MANAGEMENT
// =============================================================================

// NewConversation starts a fresh conversation and makes it current.
func (c *Controller) NewConversation() *model.Conversation {
	c.current = model.NewConversation()
	if c.store != nil {
		_ = c.store.ClearCurrent()
	}
	return c.current
}

// SwitchTo loads a stored conversation by local ID and makes it current.
func (c *Controller) SwitchTo(id string) (*model.Conversation, error) {
	conv, err := c.store.Load(id)
	if err != nil {
		return nil, err
	}
	c.current = conv
	_ = c.store.SetCurrent(conv.ID)
	return conv, nil
}

// ResumeBySessionID loads the conversation bound to a remote session ID,
// the deep-link path.
func (c *Controller) ResumeBySessionID(sessionID string) (*model.Conversation, error) {
	conv, err := c.store.FindBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	c.current = conv
	_ = c.store.SetCurrent(conv.ID)
	return conv, nil
}

// Resume restores the last current conversation, if any.
func (c *Controller) Resume() (*model.Conversation, error) {
	conv, err := c.store.Current()
	if err != nil {
		return nil, err
	}
	c.current = conv
	return conv, nil
}

// List returns stored conversation summaries, most recent first.
func (c *Controller) List() ([]storage.ConversationMeta, error) {
	return c.store.List()
}

// Delete removes one conversation. Deleting the current one resets to a
// fresh conversation.
func (c *Controller) Delete(id string) error {
	if err := c.store.Delete(id); err != nil {
		return err
	}
	if c.current != nil && c.current.ID == id {
		c.current = model.NewConversation()
	}
	return nil
}

// DeleteAll removes every stored conversation and starts fresh.
func (c *Controller) DeleteAll() error {
	if err := c.store.Clear(); err != nil {
		return err
	}
	c.current = model.NewConversation()
	return nil
}
