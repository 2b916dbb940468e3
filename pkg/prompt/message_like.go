package prompt

import (
	"encoding/json"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/message"
	"github.com/killallgit/promptforge/pkg/template"
)

// Kind identifies the variant held by a MessageLike.
type Kind int

const (
	KindBaseMessage Kind = iota
	KindRoleTemplate
	KindPlaceholder
	KindFewShot
)

// String returns the variant name used in serialized templates.
func (k Kind) String() string {
	switch k {
	case KindBaseMessage:
		return "BaseMessage"
	case KindRoleTemplate:
		return "RolePromptTemplate"
	case KindPlaceholder:
		return "Placeholder"
	case KindFewShot:
		return "FewShotPrompt"
	default:
		return "Unknown"
	}
}

func parseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindBaseMessage, KindRoleTemplate, KindPlaceholder, KindFewShot} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, errors.Malformed("unknown message variant %q", s)
}

// MessageLike is one entry of a chat template: a concrete message, a
// role-bound template awaiting substitution, a history placeholder, or a
// nested few-shot block. Only the accessor matching Kind returns ok.
type MessageLike struct {
	kind        Kind
	message     message.Message
	role        message.Role
	template    *template.Template
	placeholder MessagesPlaceholder
	fewShot     *FewShotChatTemplate
}

// BaseMessage wraps a concrete message.
func BaseMessage(msg message.Message) MessageLike {
	return MessageLike{kind: KindBaseMessage, message: msg}
}

// RoleTemplate binds tmpl to role; the message is produced at format time.
func RoleTemplate(role message.Role, tmpl *template.Template) MessageLike {
	return MessageLike{kind: KindRoleTemplate, role: role, template: tmpl}
}

// PlaceholderEntry wraps a history placeholder.
func PlaceholderEntry(p MessagesPlaceholder) MessageLike {
	return MessageLike{kind: KindPlaceholder, placeholder: p}
}

// FewShotEntry wraps a nested few-shot block.
func FewShotEntry(f *FewShotChatTemplate) MessageLike {
	return MessageLike{kind: KindFewShot, fewShot: f}
}

// Kind reports which variant m holds.
func (m MessageLike) Kind() Kind {
	return m.kind
}

// AsMessage returns the concrete message of a BaseMessage entry.
func (m MessageLike) AsMessage() (message.Message, bool) {
	return m.message, m.kind == KindBaseMessage
}

// AsRoleTemplate returns the role and template of a RolePromptTemplate entry.
func (m MessageLike) AsRoleTemplate() (message.Role, *template.Template, bool) {
	return m.role, m.template, m.kind == KindRoleTemplate
}

// AsPlaceholder returns the placeholder of a Placeholder entry.
func (m MessageLike) AsPlaceholder() (MessagesPlaceholder, bool) {
	return m.placeholder, m.kind == KindPlaceholder
}

// AsFewShot returns the nested block of a FewShotPrompt entry.
func (m MessageLike) AsFewShot() (*FewShotChatTemplate, bool) {
	return m.fewShot, m.kind == KindFewShot
}

// InputVariables returns the variables this entry needs at format time.
// Optional placeholders and few-shot blocks need none.
func (m MessageLike) InputVariables() []string {
	switch m.kind {
	case KindRoleTemplate:
		if m.template != nil {
			return m.template.InputVariables()
		}
	case KindPlaceholder:
		if !m.placeholder.Optional {
			return []string{m.placeholder.VariableName}
		}
	}
	return nil
}

// AcceptedVariables returns every variable this entry reads when present,
// including the name of an optional placeholder.
func (m MessageLike) AcceptedVariables() []string {
	switch m.kind {
	case KindRoleTemplate:
		if m.template != nil {
			return m.template.InputVariables()
		}
	case KindPlaceholder:
		return []string{m.placeholder.VariableName}
	}
	return nil
}

// resolve expands the entry into zero or more concrete messages.
func (m MessageLike) resolve(vars map[string]string) ([]message.Message, error) {
	switch m.kind {
	case KindBaseMessage:
		return []message.Message{m.message}, nil

	case KindRoleTemplate:
		if m.template == nil {
			return nil, errors.Malformed("%s entry has no template", m.role)
		}
		content, err := m.template.Format(vars)
		if err != nil {
			return nil, err
		}
		msg, err := m.role.ToMessage(content)
		if err != nil {
			return nil, err
		}
		return []message.Message{msg}, nil

	case KindPlaceholder:
		return m.placeholder.Resolve(vars)

	case KindFewShot:
		if m.fewShot == nil {
			return nil, errors.Malformed("few-shot entry has no block")
		}
		return m.fewShot.Messages()

	default:
		return nil, errors.Malformed("unknown message variant %d", int(m.kind))
	}
}

type taggedEntry struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the entry as {"type": <variant>, "value": <payload>}.
// A role template's payload is the pair [role, template text].
func (m MessageLike) MarshalJSON() ([]byte, error) {
	var payload any
	switch m.kind {
	case KindBaseMessage:
		payload = m.message
	case KindRoleTemplate:
		if m.template == nil {
			return nil, errors.Malformed("%s entry has no template", m.role)
		}
		payload = [2]string{m.role.String(), m.template.Raw()}
	case KindPlaceholder:
		payload = m.placeholder
	case KindFewShot:
		payload = m.fewShot
	default:
		return nil, errors.Malformed("unknown message variant %d", int(m.kind))
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedEntry{Type: m.kind.String(), Value: value})
}

// UnmarshalJSON accepts the {"type", "value"} form and, for compatibility,
// the single-key form {"<variant>": <payload>}.
func (m *MessageLike) UnmarshalJSON(data []byte) error {
	var tagged taggedEntry
	if err := json.Unmarshal(data, &tagged); err != nil {
		return errors.Malformed("invalid message entry: %v", err)
	}

	if tagged.Type == "" {
		var single map[string]json.RawMessage
		if err := json.Unmarshal(data, &single); err != nil || len(single) != 1 {
			return errors.Malformed("message entry needs a type and a value: %s", data)
		}
		for k, v := range single {
			tagged = taggedEntry{Type: k, Value: v}
		}
	}

	kind, err := parseKind(tagged.Type)
	if err != nil {
		return err
	}
	if len(tagged.Value) == 0 {
		return errors.Malformed("%s entry has no value", kind)
	}

	decoded, err := decodeEntry(kind, tagged.Value)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

func decodeEntry(kind Kind, value json.RawMessage) (MessageLike, error) {
	switch kind {
	case KindBaseMessage:
		var msg message.Message
		if err := decodeJSON(value, &msg); err != nil {
			return MessageLike{}, err
		}
		return BaseMessage(msg), nil

	case KindRoleTemplate:
		var pair [2]string
		if err := json.Unmarshal(value, &pair); err != nil {
			return MessageLike{}, errors.Malformed("role template must be [role, template]: %v", err)
		}
		role, err := message.ParseRole(pair[0])
		if err != nil {
			return MessageLike{}, err
		}
		tmpl, err := template.New(pair[1])
		if err != nil {
			return MessageLike{}, err
		}
		return RoleTemplate(role, tmpl), nil

	case KindPlaceholder:
		var p MessagesPlaceholder
		if err := decodeJSON(value, &p); err != nil {
			return MessageLike{}, err
		}
		return PlaceholderEntry(p), nil

	case KindFewShot:
		f := &FewShotChatTemplate{}
		if err := decodeJSON(value, f); err != nil {
			return MessageLike{}, err
		}
		return FewShotEntry(f), nil
	}
	return MessageLike{}, errors.Malformed("unknown message variant %d", int(kind))
}
