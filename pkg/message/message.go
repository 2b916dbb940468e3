package message

import (
	"encoding/json"
	"strings"

	"github.com/killallgit/promptforge/pkg/errors"
)

// Message is a concrete role-tagged message. Role is always one of system,
// human, ai or tool.
type Message struct {
	Role    Role   `json:"role" yaml:"role" toml:"role"`
	Content string `json:"content" yaml:"content" toml:"content"`
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewHumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

func NewAIMessage(content string) Message {
	return Message{Role: RoleAI, Content: content}
}

func NewToolMessage(content string) Message {
	return Message{Role: RoleTool, Content: content}
}

// New builds a message for any concrete role.
func New(role Role, content string) (Message, error) {
	if !role.IsConcrete() {
		return Message{}, errors.InvalidRole("role %q cannot carry a message", role)
	}
	return Message{Role: role, Content: content}, nil
}

func (m Message) IsSystem() bool {
	return m.Role == RoleSystem
}

func (m Message) IsHuman() bool {
	return m.Role == RoleHuman
}

func (m Message) IsAI() bool {
	return m.Role == RoleAI
}

func (m Message) IsTool() bool {
	return m.Role == RoleTool
}

func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}

// String renders the message as "role: content".
func (m Message) String() string {
	return string(m.Role) + ": " + m.Content
}

// UnmarshalJSON rejects roles outside the concrete set.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Malformed("invalid message JSON: %v", err)
	}

	role, err := ParseRole(raw.Role)
	if err != nil {
		return err
	}
	msg, err := New(role, raw.Content)
	if err != nil {
		return err
	}
	*m = msg
	return nil
}

// ParseHistory decodes a JSON array of messages, as stored in a placeholder
// variable.
func ParseHistory(data string) ([]Message, error) {
	var msgs []Message
	if err := json.Unmarshal([]byte(data), &msgs); err != nil {
		if errors.IsInvalidRole(err) || errors.IsMalformed(err) {
			return nil, err
		}
		return nil, errors.Malformed("invalid message history: %v", err)
	}
	return msgs, nil
}

// MarshalHistory encodes messages in the form ParseHistory accepts.
func MarshalHistory(msgs []Message) (string, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode message history")
	}
	return string(data), nil
}
