// Package prompt composes chat prompts from templates.
//
// A ChatTemplate is an ordered list of entries. Each entry is a concrete
// message, a role-bound template, a placeholder that expands to recorded
// message history, or a nested few-shot example block:
//
//	chat, err := prompt.FromMessages([]prompt.MessageDefinition{
//	    prompt.Chat(message.RoleSystem, "You are a {persona}."),
//	    prompt.Chat(message.RolePlaceholder, "{history}"),
//	    prompt.Chat(message.RoleHuman, "{question}"),
//	})
//
//	msgs, err := chat.FormatMessages(map[string]string{
//	    "persona":  "math tutor",
//	    "history":  `[{"role":"human","content":"Hi"},{"role":"ai","content":"Hello!"}]`,
//	    "question": "What is 5 + 5?",
//	})
//
// Few-shot blocks render a list of example templates with an optional
// prefix and suffix. A FewShotChatTemplate formats its examples with the
// variable-to-role schema of its example prompt, so the example
// "{question}: What is 2 + 2?" renders as "human: What is 2 + 2?".
//
// Prompts are serialized as JSON; loaders also read TOML and YAML and the
// hand-written FewShotChatConfig form. Every prompt kind satisfies
// langchaingo's prompts.FormatPrompter and can be kept in a Registry.
package prompt
