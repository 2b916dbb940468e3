package prompt

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/message"
	"github.com/killallgit/promptforge/pkg/template"
)

func greetingChat(t *testing.T, opts ...Option) *ChatTemplate {
	t.Helper()
	chat, err := FromMessages([]MessageDefinition{
		Chat(message.RoleSystem, "Sys msg"),
		Chat(message.RoleHuman, "Hi {name}"),
	}, opts...)
	require.NoError(t, err)
	return chat
}

func TestFromMessages(t *testing.T) {
	t.Run("plain text is baked into a message", func(t *testing.T) {
		chat := greetingChat(t)
		require.Equal(t, 2, chat.Len())

		entries := chat.Entries()
		msg, ok := entries[0].AsMessage()
		require.True(t, ok)
		assert.Equal(t, message.NewSystemMessage("Sys msg"), msg)

		role, tmpl, ok := entries[1].AsRoleTemplate()
		require.True(t, ok)
		assert.Equal(t, message.RoleHuman, role)
		assert.Equal(t, template.FmtString, tmpl.TemplateFormat())
	})

	t.Run("placeholder role", func(t *testing.T) {
		chat, err := FromMessages([]MessageDefinition{
			Chat(message.RolePlaceholder, "{history}"),
		})
		require.NoError(t, err)

		p, ok := chat.Entries()[0].AsPlaceholder()
		require.True(t, ok)
		assert.Equal(t, "history", p.VariableName)
		assert.Equal(t, DefaultPlaceholderLimit, p.Limit)
	})

	t.Run("placeholder limit option", func(t *testing.T) {
		chat, err := FromMessages([]MessageDefinition{
			Chat(message.RolePlaceholder, "{history}"),
		}, WithPlaceholderLimit(1))
		require.NoError(t, err)

		msgs, err := chat.FormatMessages(map[string]string{"history": history})
		require.NoError(t, err)
		assert.Equal(t, []message.Message{message.NewHumanMessage("Hi")}, msgs)
	})

	t.Run("placeholder with two variables", func(t *testing.T) {
		_, err := FromMessages([]MessageDefinition{
			Chat(message.RoleSystem, "ok"),
			Chat(message.RolePlaceholder, "{a} {b}"),
		})
		require.Error(t, err)
		assert.True(t, errors.IsMalformed(err))
		assert.Contains(t, err.Error(), "message 1")
	})

	t.Run("malformed template aborts the build", func(t *testing.T) {
		_, err := FromMessages([]MessageDefinition{
			Chat(message.RoleHuman, "Hello {{name}"),
		})
		require.Error(t, err)
		assert.True(t, errors.IsMalformed(err))
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := FromMessages([]MessageDefinition{
			{Role: message.Role("narrator"), Template: "once upon a time"},
		})
		require.Error(t, err)
		assert.True(t, errors.IsInvalidRole(err))
	})

	t.Run("tool role cannot carry a template", func(t *testing.T) {
		_, err := FromMessages([]MessageDefinition{
			Chat(message.RoleTool, "result"),
		})
		require.Error(t, err)
		assert.True(t, errors.IsInvalidRole(err))
	})

	t.Run("fewshotprompt role parses a serialized block", func(t *testing.T) {
		block := mathExamples(t)
		data, err := json.Marshal(block)
		require.NoError(t, err)

		chat, err := FromMessages([]MessageDefinition{
			Chat(message.RoleFewShotPrompt, string(data)),
			Chat(message.RoleHuman, "{question}"),
		})
		require.NoError(t, err)

		f, ok := chat.Entries()[0].AsFewShot()
		require.True(t, ok)
		assert.Len(t, f.Examples().Examples(), 2)
	})
}

func TestChatTemplateFormat(t *testing.T) {
	t.Run("format messages", func(t *testing.T) {
		msgs, err := greetingChat(t).FormatMessages(map[string]string{"name": "Sam"})
		require.NoError(t, err)
		assert.Equal(t, []message.Message{
			message.NewSystemMessage("Sys msg"),
			message.NewHumanMessage("Hi Sam"),
		}, msgs)
	})

	t.Run("invoke matches format messages", func(t *testing.T) {
		chat := greetingChat(t)
		vars := map[string]string{"name": "Sam"}

		a, err := chat.FormatMessages(vars)
		require.NoError(t, err)
		b, err := chat.Invoke(vars)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("format joins contents", func(t *testing.T) {
		out, err := greetingChat(t).Format(map[string]string{"name": "Sam"})
		require.NoError(t, err)
		assert.Equal(t, "Sys msg\nHi Sam", out)
	})

	t.Run("missing variable", func(t *testing.T) {
		_, err := greetingChat(t).FormatMessages(nil)
		require.Error(t, err)
		name, ok := errors.MissingVariableName(err)
		require.True(t, ok)
		assert.Equal(t, "name", name)
	})

	t.Run("placeholder between messages", func(t *testing.T) {
		chat, err := FromMessages([]MessageDefinition{
			Chat(message.RoleSystem, "You are a {persona}."),
			Chat(message.RolePlaceholder, "{history}"),
			Chat(message.RoleHuman, "{question}"),
		})
		require.NoError(t, err)

		msgs, err := chat.FormatMessages(map[string]string{
			"persona":  "math tutor",
			"history":  history,
			"question": "What is 5 + 5?",
		})
		require.NoError(t, err)
		assert.Equal(t, []message.Message{
			message.NewSystemMessage("You are a math tutor."),
			message.NewHumanMessage("Hi"),
			message.NewAIMessage("Hello!"),
			message.NewHumanMessage("How are you?"),
			message.NewHumanMessage("What is 5 + 5?"),
		}, msgs)
	})

	t.Run("optional placeholder absent", func(t *testing.T) {
		chat := NewChatTemplate([]MessageLike{
			BaseMessage(message.NewSystemMessage("Sys msg")),
			PlaceholderEntry(NewMessagesPlaceholder("history", WithOptional(true))),
		})
		msgs, err := chat.FormatMessages(map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, []message.Message{message.NewSystemMessage("Sys msg")}, msgs)
	})

	t.Run("malformed placeholder history", func(t *testing.T) {
		chat, err := FromMessages([]MessageDefinition{
			Chat(message.RolePlaceholder, "{history}"),
		})
		require.NoError(t, err)

		_, err = chat.FormatMessages(map[string]string{"history": "{not an array"})
		require.Error(t, err)
		assert.True(t, errors.IsMalformed(err))
	})
}

func TestChatTemplateConcurrency(t *testing.T) {
	entries := []MessageLike{
		BaseMessage(message.NewSystemMessage("zero")),
		RoleTemplate(message.RoleHuman, template.MustNew("{a}")),
		RoleTemplate(message.RoleAI, template.MustNew("two")),
		RoleTemplate(message.RoleHuman, template.MustNew("{b}")),
	}

	t.Run("results keep entry order", func(t *testing.T) {
		var defs []MessageDefinition
		vars := map[string]string{}
		for i := 0; i < 50; i++ {
			name := "v" + string(rune('a'+i%26)) + string(rune('a'+i/26))
			defs = append(defs, Chat(message.RoleHuman, "{"+name+"}"))
			vars[name] = name
		}
		chat, err := FromMessages(defs, WithConcurrency(8))
		require.NoError(t, err)

		msgs, err := chat.FormatMessages(vars)
		require.NoError(t, err)
		require.Len(t, msgs, 50)
		for i, d := range defs {
			assert.Equal(t, d.Template[1:len(d.Template)-1], msgs[i].Content)
		}
	})

	t.Run("lowest index error wins", func(t *testing.T) {
		chat := NewChatTemplate(entries, WithConcurrency(4))
		for i := 0; i < 20; i++ {
			_, err := chat.FormatMessages(map[string]string{})
			require.Error(t, err)
			name, ok := errors.MissingVariableName(err)
			require.True(t, ok)
			assert.Equal(t, "a", name)
			assert.Contains(t, err.Error(), "entry 1")
		}
	})

	t.Run("sequential and concurrent agree", func(t *testing.T) {
		vars := map[string]string{"a": "one", "b": "three"}
		seq, err := NewChatTemplate(entries).FormatMessages(vars)
		require.NoError(t, err)
		par, err := NewChatTemplate(entries, WithConcurrency(3)).FormatMessages(vars)
		require.NoError(t, err)
		assert.Equal(t, seq, par)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewChatTemplate(entries).FormatMessagesContext(ctx, map[string]string{"a": "1", "b": "2"})
		assert.ErrorIs(t, err, context.Canceled)

		_, err = NewChatTemplate(entries, WithConcurrency(2)).FormatMessagesContext(ctx, map[string]string{"a": "1", "b": "2"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestChatTemplateConcat(t *testing.T) {
	chat := greetingChat(t)
	empty := NewChatTemplate(nil)

	t.Run("empty is the identity", func(t *testing.T) {
		assert.Equal(t, chat.Entries(), chat.Concat(empty).Entries())
		assert.Equal(t, chat.Entries(), empty.Concat(chat).Entries())
	})

	t.Run("operands are untouched", func(t *testing.T) {
		tail, err := FromMessages([]MessageDefinition{Chat(message.RoleAI, "Bye {name}")})
		require.NoError(t, err)

		joined := chat.Concat(tail, nil)
		assert.Equal(t, 3, joined.Len())
		assert.Equal(t, 2, chat.Len())
		assert.Equal(t, 1, tail.Len())

		msgs, err := joined.FormatMessages(map[string]string{"name": "Sam"})
		require.NoError(t, err)
		assert.Equal(t, message.NewAIMessage("Bye Sam"), msgs[2])
	})
}

func TestChatTemplateVariables(t *testing.T) {
	chat, err := FromMessages([]MessageDefinition{
		Chat(message.RoleSystem, "You are {role}"),
		Chat(message.RolePlaceholder, "{history}"),
		Chat(message.RoleHuman, "{question} as {role}"),
		Chat(message.RoleAI, "static"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"role", "history", "question"}, chat.InputVariables())
	assert.Equal(t, chat.InputVariables(), chat.GetInputVariables())

	t.Run("to variables map", func(t *testing.T) {
		assert.Equal(t, map[string]string{
			"role":     "system",
			"question": "human",
		}, chat.ToVariablesMap())
	})

	t.Run("accepted variables include optional placeholders", func(t *testing.T) {
		chat := NewChatTemplate([]MessageLike{
			PlaceholderEntry(NewMessagesPlaceholder("history", WithOptional(true))),
			RoleTemplate(message.RoleHuman, template.MustNew("Hi {name}")),
			PlaceholderEntry(NewMessagesPlaceholder("context")),
		})
		assert.Equal(t, []string{"name", "context"}, chat.InputVariables())
		assert.Equal(t, []string{"history", "name", "context"}, chat.AcceptedVariables())
	})

	t.Run("last write wins", func(t *testing.T) {
		chat, err := FromMessages([]MessageDefinition{
			Chat(message.RoleHuman, "{x}"),
			Chat(message.RoleAI, "{x}"),
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"x": "ai"}, chat.ToVariablesMap())
	})
}

func TestChatTemplateFormatPrompt(t *testing.T) {
	pv, err := greetingChat(t).FormatPrompt(map[string]any{"name": "Sam"})
	require.NoError(t, err)

	assert.Equal(t, []llms.ChatMessage{
		llms.SystemChatMessage{Content: "Sys msg"},
		llms.HumanChatMessage{Content: "Hi Sam"},
	}, pv.Messages())
	assert.Equal(t, "system: Sys msg\nHuman: Hi Sam", pv.String())
}

func TestChatTemplateJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		chat, err := FromMessages([]MessageDefinition{
			Chat(message.RoleSystem, "Sys msg"),
			Chat(message.RolePlaceholder, "{history}"),
			Chat(message.RoleHuman, "Hi {{name}}"),
		})
		require.NoError(t, err)

		data, err := json.Marshal(chat)
		require.NoError(t, err)
		assert.JSONEq(t, `{"messages":[
			{"type":"BaseMessage","value":{"role":"system","content":"Sys msg"}},
			{"type":"Placeholder","value":{"variable_name":"history","optional":false,"n_messages":100}},
			{"type":"RolePromptTemplate","value":["human","Hi {{name}}"]}
		]}`, string(data))

		decoded, err := ParseChatTemplate(string(data))
		require.NoError(t, err)

		vars := map[string]string{"name": "Sam", "history": history}
		want, err := chat.FormatMessages(vars)
		require.NoError(t, err)
		got, err := decoded.FormatMessages(vars)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("single key entries", func(t *testing.T) {
		chat, err := ParseChatTemplate(`{"messages":[
			{"BaseMessage":{"role":"system","content":"Sys msg"}},
			{"RolePromptTemplate":["human","Hi {name}"]}
		]}`)
		require.NoError(t, err)

		out, err := chat.Format(map[string]string{"name": "Sam"})
		require.NoError(t, err)
		assert.Equal(t, "Sys msg\nHi Sam", out)
	})

	t.Run("nested few-shot entry", func(t *testing.T) {
		chat := NewChatTemplate([]MessageLike{
			FewShotEntry(mathExamples(t)),
			BaseMessage(message.NewHumanMessage("What is 7 + 7?")),
		})
		data, err := json.Marshal(chat)
		require.NoError(t, err)

		decoded, err := ParseChatTemplate(string(data))
		require.NoError(t, err)

		want, err := chat.FormatMessages(nil)
		require.NoError(t, err)
		got, err := decoded.FormatMessages(nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("empty template", func(t *testing.T) {
		data, err := json.Marshal(NewChatTemplate(nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"messages":[]}`, string(data))
	})

	t.Run("errors", func(t *testing.T) {
		tests := map[string]struct {
			input string
			check func(error) bool
		}{
			"missing messages": {`{}`, errors.IsMalformed},
			"invalid json":     {`{"messages": [`, errors.IsMalformed},
			"unknown variant":  {`{"messages":[{"type":"Narration","value":"x"}]}`, errors.IsMalformed},
			"no value":         {`{"messages":[{"type":"BaseMessage"}]}`, errors.IsMalformed},
			"bad role":         {`{"messages":[{"type":"BaseMessage","value":{"role":"wizard","content":"x"}}]}`, errors.IsInvalidRole},
			"bad template":     {`{"messages":[{"type":"RolePromptTemplate","value":["human","{{x}"]}]}`, errors.IsMalformed},
			"bad pair":         {`{"messages":[{"type":"RolePromptTemplate","value":{"role":"human"}}]}`, errors.IsMalformed},
		}
		for name, tt := range tests {
			t.Run(name, func(t *testing.T) {
				_, err := ParseChatTemplate(tt.input)
				require.Error(t, err)
				assert.True(t, tt.check(err), err.Error())
			})
		}
	})
}

func TestNilEntriesDoNotPanic(t *testing.T) {
	chat := NewChatTemplate([]MessageLike{
		RoleTemplate(message.RoleHuman, nil),
		FewShotEntry(nil),
	})

	assert.NotPanics(t, func() {
		assert.Empty(t, chat.InputVariables())
		assert.Empty(t, chat.AcceptedVariables())
		assert.Empty(t, chat.ToVariablesMap())
	})

	_, err := chat.FormatMessages(nil)
	require.Error(t, err)
	assert.True(t, errors.IsMalformed(err))

	_, err = NewChatTemplate([]MessageLike{FewShotEntry(nil)}).FormatMessages(nil)
	assert.True(t, errors.IsMalformed(err))

	_, err = json.Marshal(NewChatTemplate([]MessageLike{RoleTemplate(message.RoleAI, nil)}))
	assert.Error(t, err)
}
