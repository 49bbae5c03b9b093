package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"unicode/utf8"
)

// Log types.
const (
	LogTypeText   = "text"
	LogTypeObject = "object"
	LogTypeArray  = "array"
	LogTypeError  = "error"
	LogTypeValue  = "primitive"
)

// Log is a status/log record emitted by a component for tracing sinks.
type Log struct {
	Name    string `json:"name"`
	Message any    `json:"message"`
	Type    string `json:"type"`
}

// NewLog builds a record and infers its type from the message.
func NewLog(name string, message any) Log {
	return Log{Name: name, Message: message, Type: InferLogType(message)}
}

// InferLogType classifies a message for display.
func InferLogType(message any) string {
	switch message.(type) {
	case string, Message, *Message:
		return LogTypeText
	case error:
		return LogTypeError
	case Data, map[string]any:
		return LogTypeObject
	}
	if message == nil {
		return LogTypeValue
	}
	switch reflect.ValueOf(message).Kind() {
	case reflect.Slice, reflect.Array:
		return LogTypeArray
	case reflect.Map, reflect.Struct:
		return LogTypeObject
	case reflect.Pointer:
		if reflect.ValueOf(message).Elem().Kind() == reflect.Struct {
			return LogTypeObject
		}
	}
	return LogTypeValue
}

// SerializeMessage renders the message in a transport-safe form.
// When native JSON encoding fails the string representation is used and a
// *SerializationFallbackWarning is returned alongside the fallback bytes.
func (l Log) SerializeMessage() (json.RawMessage, error) {
	if err, ok := l.Message.(error); ok {
		raw, _ := json.Marshal(err.Error())
		return raw, nil
	}
	if s, ok := l.Message.(string); ok && !utf8.ValidString(s) {
		raw, _ := json.Marshal(fmt.Sprintf("%q", s))
		return raw, &SerializationFallbackWarning{Name: l.Name, Err: errors.New("invalid utf-8")}
	}

	raw, err := json.Marshal(l.Message)
	if err == nil {
		return raw, nil
	}
	fallback, _ := json.Marshal(fmt.Sprint(l.Message))
	return fallback, &SerializationFallbackWarning{Name: l.Name, Err: err}
}

// MarshalJSON never fails on the message: it falls back to the string form.
func (l Log) MarshalJSON() ([]byte, error) {
	msg, _ := l.SerializeMessage()
	return json.Marshal(struct {
		Name    string          `json:"name"`
		Message json.RawMessage `json:"message"`
		Type    string          `json:"type"`
	}{l.Name, msg, l.Type})
}
