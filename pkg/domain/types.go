package domain

import (
	"context"
	"fmt"
	"time"
)

// Semantic types name a capability carried along an edge, not a Go type.
const (
	TypeMessage     = "Message"
	TypeText        = "Text"
	TypeData        = "Data"
	TypeDataFrame   = "DataFrame"
	TypeEmbeddings  = "Embeddings"
	TypeVectorStore = "VectorStore"
	TypeTool        = "Tool"
	TypeMemory      = "Memory"
	TypeDocument    = "Document"
)

// Message senders.
const (
	SenderUser    = "User"
	SenderMachine = "Machine"

	SenderNameUser = "User"
	SenderNameAI   = "AI"
)

// Message is the chat payload exchanged between components.
type Message struct {
	Text       string         `json:"text" yaml:"text"`
	Sender     string         `json:"sender,omitempty" yaml:"sender,omitempty"`
	SenderName string         `json:"sender_name,omitempty" yaml:"sender_name,omitempty"`
	SessionID  string         `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Data       map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// String returns the message text.
func (m Message) String() string { return m.Text }

// Data is a generic structured record.
type Data struct {
	Data map[string]any `json:"data" yaml:"data"`
}

// NewData builds a Data record from key/value pairs.
func NewData(values map[string]any) Data {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return Data{Data: out}
}

// Get returns a field of the record.
func (d Data) Get(key string) (any, bool) {
	v, ok := d.Data[key]
	return v, ok
}

// Text returns the "text" field when present, or a printable form of the record.
func (d Data) Text() string {
	if v, ok := d.Data["text"]; ok {
		return fmt.Sprint(v)
	}
	return fmt.Sprint(d.Data)
}

// Embeddings turns text into vectors.
type Embeddings interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// AsText coerces the common payloads (string, Message, Data, fmt.Stringer) to text.
func AsText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case Message:
		return t.Text, true
	case *Message:
		if t == nil {
			return "", false
		}
		return t.Text, true
	case Data:
		return t.Text(), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}
