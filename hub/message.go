package hub

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// MessageType tags a Message on the wire.
type MessageType string

const (
	TypeCalculation MessageType = "calculation"
	TypeChat        MessageType = "chat"
	TypeSystem      MessageType = "system"
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"
)

var (
	// ErrUnknownType is returned by ParseMessage for a missing or unknown type tag.
	ErrUnknownType = errors.New("unknown message type")
	// ErrMissingField is returned by ParseMessage when a field of the type is absent.
	ErrMissingField = errors.New("missing field")
)

// Message is a WebSocket message. Which fields are meaningful depends on Type:
//
//	calculation: Operation, Result, Timestamp
//	chat:        User, Message, Timestamp
//	system:      Message, Timestamp
//	ping, pong:  none
type Message struct {
	Type      MessageType
	Operation string
	Result    float64
	User      string
	Message   string
	Timestamp string
}

type calculationWire struct {
	Type      MessageType `json:"type"`
	Operation string      `json:"operation"`
	Result    float64     `json:"result"`
	Timestamp string      `json:"timestamp"`
}

type chatWire struct {
	Type      MessageType `json:"type"`
	User      string      `json:"user"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
}

type systemWire struct {
	Type      MessageType `json:"type"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
}

type tagWire struct {
	Type MessageType `json:"type"`
}

// MarshalJSON writes exactly the fields of the message type.
func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case TypeCalculation:
		return json.Marshal(calculationWire{Type: m.Type, Operation: m.Operation, Result: m.Result, Timestamp: m.Timestamp})
	case TypeChat:
		return json.Marshal(chatWire{Type: m.Type, User: m.User, Message: m.Message, Timestamp: m.Timestamp})
	case TypeSystem:
		return json.Marshal(systemWire{Type: m.Type, Message: m.Message, Timestamp: m.Timestamp})
	case TypePing, TypePong:
		return json.Marshal(tagWire{Type: m.Type})
	default:
		return nil, errors.Wrapf(ErrUnknownType, "%q", m.Type)
	}
}

// ParseMessage decodes a text frame. Every field of the message type must be
// present; unknown fields are ignored.
func ParseMessage(data []byte) (*Message, error) {
	var w struct {
		Type      *MessageType `json:"type"`
		Operation *string      `json:"operation"`
		Result    *float64     `json:"result"`
		User      *string      `json:"user"`
		Message   *string      `json:"message"`
		Timestamp *string      `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "decode message")
	}
	if w.Type == nil {
		return nil, ErrUnknownType
	}

	m := &Message{Type: *w.Type}
	var missing string
	switch m.Type {
	case TypeCalculation:
		missing = firstMissing(map[string]bool{"operation": w.Operation != nil, "result": w.Result != nil, "timestamp": w.Timestamp != nil})
	case TypeChat:
		missing = firstMissing(map[string]bool{"user": w.User != nil, "message": w.Message != nil, "timestamp": w.Timestamp != nil})
	case TypeSystem:
		missing = firstMissing(map[string]bool{"message": w.Message != nil, "timestamp": w.Timestamp != nil})
	case TypePing, TypePong:
	default:
		return nil, errors.Wrapf(ErrUnknownType, "%q", m.Type)
	}
	if missing != "" {
		return nil, errors.Wrapf(ErrMissingField, "%s %s", m.Type, missing)
	}

	m.Operation = deref(w.Operation)
	m.User = deref(w.User)
	m.Message = deref(w.Message)
	m.Timestamp = deref(w.Timestamp)
	if w.Result != nil {
		m.Result = *w.Result
	}
	return m, nil
}

func firstMissing(present map[string]bool) string {
	for _, name := range []string{"operation", "result", "user", "message", "timestamp"} {
		if ok, known := present[name]; known && !ok {
			return name
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
