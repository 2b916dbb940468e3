package message

import (
	"github.com/tmc/langchaingo/llms"

	"github.com/killallgit/promptforge/pkg/errors"
)

// ChatMessageType maps r onto the langchaingo message type.
func (r Role) ChatMessageType() llms.ChatMessageType {
	switch r {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAI:
		return llms.ChatMessageTypeAI
	case RoleTool:
		return llms.ChatMessageTypeTool
	default:
		return llms.ChatMessageTypeHuman
	}
}

// ToChatMessage converts m to a langchaingo chat message.
func (m Message) ToChatMessage() llms.ChatMessage {
	switch m.Role {
	case RoleSystem:
		return llms.SystemChatMessage{Content: m.Content}
	case RoleAI:
		return llms.AIChatMessage{Content: m.Content}
	case RoleTool:
		return llms.ToolChatMessage{Content: m.Content}
	default:
		return llms.HumanChatMessage{Content: m.Content}
	}
}

// ToMessageContent converts m to the content form GenerateContent expects.
func (m Message) ToMessageContent() llms.MessageContent {
	return llms.TextParts(m.Role.ChatMessageType(), m.Content)
}

// FromChatMessage converts a langchaingo chat message back to a Message.
// Generic messages are accepted when their role names a concrete role.
func FromChatMessage(cm llms.ChatMessage) (Message, error) {
	switch cm.GetType() {
	case llms.ChatMessageTypeSystem:
		return NewSystemMessage(cm.GetContent()), nil
	case llms.ChatMessageTypeHuman:
		return NewHumanMessage(cm.GetContent()), nil
	case llms.ChatMessageTypeAI:
		return NewAIMessage(cm.GetContent()), nil
	case llms.ChatMessageTypeTool:
		return NewToolMessage(cm.GetContent()), nil
	case llms.ChatMessageTypeGeneric:
		generic, ok := cm.(llms.GenericChatMessage)
		if !ok {
			return Message{}, errors.InvalidRole("unexpected generic message %T", cm)
		}
		role, err := ParseRole(generic.Role)
		if err != nil {
			return Message{}, err
		}
		return New(role, generic.Content)
	default:
		return Message{}, errors.InvalidRole("unsupported chat message type %q", cm.GetType())
	}
}

// ChatMessages converts msgs for use as a langchaingo prompt value.
func ChatMessages(msgs []Message) []llms.ChatMessage {
	out := make([]llms.ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = m.ToChatMessage()
	}
	return out
}

// MessageContents converts msgs for llms.Model.GenerateContent.
func MessageContents(msgs []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, len(msgs))
	for i, m := range msgs {
		out[i] = m.ToMessageContent()
	}
	return out
}

// FromChatMessages converts a langchaingo message list. It fails on the
// first message without a concrete role.
func FromChatMessages(cms []llms.ChatMessage) ([]Message, error) {
	out := make([]Message, 0, len(cms))
	for i, cm := range cms {
		m, err := FromChatMessage(cm)
		if err != nil {
			return nil, errors.Wrapf(err, "message %d", i)
		}
		out = append(out, m)
	}
	return out, nil
}

// BufferString renders msgs as "role: content" lines using the canonical
// role names.
func BufferString(msgs []Message) (string, error) {
	return llms.GetBufferString(ChatMessages(msgs), string(RoleHuman), string(RoleAI))
}
