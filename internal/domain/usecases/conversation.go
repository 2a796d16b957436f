// Package usecases - conversation.go holds the chat transcript and sends turns.
package usecases

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
)

// ChatErrorReply replaces the assistant's answer when a chat call fails.
const ChatErrorReply = "Sorry, I encountered an error processing your request."

// ConversationStore owns the append-only transcript.
// At most one chat exchange is in flight at a time.
type ConversationStore struct {
	gateway ports.Gateway

	mu        sync.Mutex
	messages  []entities.Message
	inFlight  bool
	draft     string
	listeners []func()
}

// NewConversationStore creates an empty conversation backed by gateway.
func NewConversationStore(gateway ports.Gateway) *ConversationStore {
	return &ConversationStore{gateway: gateway}
}

// OnChange registers fn to run after the transcript, draft or in-flight flag change.
func (c *ConversationStore) OnChange(fn func()) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *ConversationStore) notify() {
	c.mu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Messages returns a deep copy of the transcript.
func (c *ConversationStore) Messages() []entities.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entities.Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of messages in the transcript.
func (c *ConversationStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// InFlight reports whether a chat exchange is awaiting its reply.
func (c *ConversationStore) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Draft returns the pending user input.
func (c *ConversationStore) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the pending user input.
func (c *ConversationStore) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
	c.notify()
}

// Send submits the draft as a user turn and appends the assistant's reply.
// It returns false without side effects when the draft is blank or a send is in flight.
// Failures never surface as errors: they become an apology in the transcript.
func (c *ConversationStore) Send(ctx context.Context) bool {
	exchange, ok := c.Begin()
	if !ok {
		return false
	}
	exchange(ctx)
	return true
}

// Begin moves the draft into the transcript as a user turn and marks the
// exchange in flight, all under one lock. The returned function performs the
// chat call and appends the reply; it must be called exactly once.
// Begin reports false without side effects when the draft is blank or a send is in flight.
func (c *ConversationStore) Begin() (func(ctx context.Context), bool) {
	c.mu.Lock()
	if c.inFlight || strings.TrimSpace(c.draft) == "" {
		c.mu.Unlock()
		return nil, false
	}

	content := c.draft
	history := entities.HistoryOf(c.messages)
	c.messages = append(c.messages, entities.Message{Role: entities.RoleUser, Content: content})
	c.draft = ""
	c.inFlight = true
	c.mu.Unlock()
	c.notify()

	return func(ctx context.Context) {
		c.exchange(ctx, content, history)
	}, true
}

func (c *ConversationStore) exchange(ctx context.Context, content string, history []entities.HistoryEntry) {
	reply := entities.Message{Role: entities.RoleAssistant, Content: ChatErrorReply}
	defer func() {
		c.mu.Lock()
		c.messages = append(c.messages, reply)
		c.inFlight = false
		c.mu.Unlock()
		c.notify()
	}()

	resp, err := c.gateway.SendChat(ctx, content, history)
	if err != nil {
		log.Error().Err(err).Msg("chat request failed")
		return
	}

	reply.Content = resp.Response
	if len(resp.Sources) > 0 {
		reply.Sources = append([]entities.Source(nil), resp.Sources...)
	}
}

// AppendSystemNotice adds an assistant-authored message with no sources.
func (c *ConversationStore) AppendSystemNotice(text string) {
	c.mu.Lock()
	c.messages = append(c.messages, entities.Message{Role: entities.RoleAssistant, Content: text})
	c.mu.Unlock()
	c.notify()
}
