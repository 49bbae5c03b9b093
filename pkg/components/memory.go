package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/schema"
)

// ChatHistory holds the messages of one chat session, oldest first.
type ChatHistory struct {
	mu       sync.RWMutex
	messages []domain.Message
}

// NewChatHistory returns an empty history.
func NewChatHistory() *ChatHistory { return &ChatHistory{} }

// Add appends messages to the history.
func (h *ChatHistory) Add(msgs ...domain.Message) {
	h.mu.Lock()
	h.messages = append(h.messages, msgs...)
	h.mu.Unlock()
}

func (h *ChatHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// HistoryFilter selects messages from a ChatHistory. Empty fields match
// everything; Limit keeps the most recent matches.
type HistoryFilter struct {
	Sender     string
	SenderName string
	Limit      int
}

// Messages returns the matching messages, oldest first.
func (h *ChatHistory) Messages(f HistoryFilter) []domain.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []domain.Message
	for _, m := range h.messages {
		if f.Sender != "" && m.Sender != f.Sender {
			continue
		}
		if f.SenderName != "" && m.SenderName != f.SenderName {
			continue
		}
		out = append(out, m)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

const (
	historyKeyPrefix = "messages:"

	senderAny       = "Machine and User"
	orderAscending  = "Ascending"
	orderDescending = "Descending"
)

type cacheUser interface {
	SharedCache(ctx context.Context) (component.Cache, error)
	Logger() *slog.Logger
}

// sessionHistory returns the session's history from the shared cache. Without
// a cache service the history is empty and dropped after the call.
func sessionHistory(ctx context.Context, c cacheUser, session string) (*ChatHistory, error) {
	cache, err := c.SharedCache(ctx)
	if errors.Is(err, domain.ErrServiceNotFound) {
		c.Logger().Warn("shared cache unavailable, chat history will not outlive the run", "session_id", session)
		return NewChatHistory(), nil
	}
	if err != nil {
		return nil, err
	}
	key := historyKeyPrefix + session
	v, err := cache.GetOrCreate(ctx, key, func(context.Context) (any, error) {
		return NewChatHistory(), nil
	})
	if err != nil {
		return nil, err
	}
	h, ok := v.(*ChatHistory)
	if !ok {
		return nil, fmt.Errorf("shared cache key %q holds %T", key, v)
	}
	return h, nil
}

// Memory retrieves the stored messages of a chat session.
type Memory struct {
	component.Base
}

func (c *Memory) Definition() component.Definition {
	return component.Definition{
		Name:        "Memory",
		DisplayName: "Message History",
		Description: "Retrieves stored chat messages of a session.",
		Inputs: []component.Input{
			component.MessageTextInput("session_id", component.Display("Session ID"), component.Advanced(),
				component.Info("The session ID of the chat. If empty, the current run id is used.")),
			component.StrInput("sender", component.Display("Sender Type"),
				component.Field(schema.OneOf(domain.SenderMachine, domain.SenderUser, senderAny)),
				component.Default(senderAny), component.Advanced()),
			component.MessageTextInput("sender_name", component.Display("Sender Name"), component.Advanced()),
			component.IntInput("n_messages", component.Display("Number of Messages"), component.Default(100), component.Advanced()),
			component.StrInput("order", component.Display("Order"),
				component.Field(schema.OneOf(orderAscending, orderDescending)),
				component.Default(orderAscending), component.Advanced()),
			component.MultilineInput("template", component.Display("Template"), component.Default("{sender_name}: {text}"), component.Advanced(),
				component.Info("Template used to render each message in the text output.")),
		},
		Outputs: []component.Output{
			{Name: "messages", DisplayName: "Data", Method: "RetrieveMessages", Types: []string{domain.TypeData}},
			{Name: "messages_text", DisplayName: "Message", Method: "RetrieveMessagesAsText", Types: []string{domain.TypeMessage}},
			{Name: "memory", DisplayName: "Memory", Method: "BuildHistory", Types: []string{domain.TypeMemory}},
		},
	}
}

func (c *Memory) session() string {
	if sid := c.Text("session_id"); sid != "" {
		return sid
	}
	return c.RunID()
}

// BuildHistory returns the session's history for components that write to it.
func (c *Memory) BuildHistory(ctx context.Context) (*ChatHistory, error) {
	return sessionHistory(ctx, c, c.session())
}

func (c *Memory) messages(ctx context.Context) ([]domain.Message, error) {
	h, err := c.BuildHistory(ctx)
	if err != nil {
		return nil, err
	}
	n, err := c.Int("n_messages")
	if err != nil {
		return nil, err
	}
	f := HistoryFilter{SenderName: c.Text("sender_name"), Limit: n}
	if s := c.Text("sender"); s != senderAny {
		f.Sender = s
	}
	msgs := h.Messages(f)
	if c.Text("order") == orderDescending {
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}
	return msgs, nil
}

func (c *Memory) RetrieveMessages(ctx context.Context) ([]domain.Data, error) {
	msgs, err := c.messages(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Data, len(msgs))
	for i, m := range msgs {
		out[i] = fromMessage(m)
	}
	c.SetStatus(out)
	return out, nil
}

// RetrieveMessagesAsText renders every message through template, one per line.
func (c *Memory) RetrieveMessagesAsText(ctx context.Context) (domain.Message, error) {
	msgs, err := c.messages(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	tmpl := c.Text("template")
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = formatData(tmpl, fromMessage(m))
	}
	msg := domain.Message{Text: strings.Join(lines, "\n")}
	c.SetStatus(msg.Text)
	return msg, nil
}

// StoreMessage appends a message to its session's history.
type StoreMessage struct {
	component.Base
}

func (c *StoreMessage) Definition() component.Definition {
	return component.Definition{
		Name:        "StoreMessage",
		DisplayName: "Message Store",
		Description: "Stores a chat message or text into the session history.",
		Inputs: []component.Input{
			component.MessageTextInput("message", component.Display("Message"), component.Required(),
				component.Info("The chat message to be stored.")),
			component.HandleInput("memory", []string{domain.TypeMemory}, component.Display("External Memory"),
				component.Info("The history to store the message in. If empty, the shared session history is used.")),
			component.MessageTextInput("sender", component.Display("Sender"), component.Advanced(),
				component.Info("The sender of the message. If empty, the message's own sender is used.")),
			component.MessageTextInput("sender_name", component.Display("Sender Name"), component.Advanced(),
				component.Info("The name of the sender. If empty, the message's own sender name is used.")),
			component.MessageTextInput("session_id", component.Display("Session ID"), component.Advanced(),
				component.Info("The session ID of the chat. If empty, the message's session is used.")),
		},
		Outputs: []component.Output{
			{Name: "stored_messages", DisplayName: "Stored Messages", Method: "Store", Types: []string{domain.TypeMessage}},
		},
	}
}

// Store saves the message and returns it as stored. Messages without a
// sender are recorded as coming from the AI.
func (c *StoreMessage) Store(ctx context.Context) (domain.Message, error) {
	var msg domain.Message
	switch v := c.Input("message").(type) {
	case domain.Message:
		msg = v
	case *domain.Message:
		if v != nil {
			msg = *v
		}
	default:
		msg.Text, _ = domain.AsText(v)
	}

	msg.SessionID = firstNonEmpty(c.Text("session_id"), msg.SessionID, c.RunID())
	msg.Sender = firstNonEmpty(c.Text("sender"), msg.Sender, domain.SenderMachine)
	msg.SenderName = firstNonEmpty(c.Text("sender_name"), msg.SenderName, domain.SenderNameAI)
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	var h *ChatHistory
	switch v := c.Input("memory").(type) {
	case nil:
		var err error
		if h, err = sessionHistory(ctx, c, msg.SessionID); err != nil {
			return domain.Message{}, err
		}
	case *ChatHistory:
		h = v
	default:
		return domain.Message{}, fmt.Errorf("memory of %q: expected chat history, got %T", c.ID(), v)
	}

	h.Add(msg)
	c.Logger().Debug("message stored", "session_id", msg.SessionID, "sender", msg.Sender, "history", h.Len())
	c.SetStatus(msg)
	return msg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
