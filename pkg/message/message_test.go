package message_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tmc/langchaingo/llms"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/message"
)

var _ = Describe("Message", func() {
	Describe("constructors", func() {
		It("should tag each message with its role", func() {
			Expect(message.NewSystemMessage("s").IsSystem()).To(BeTrue())
			Expect(message.NewHumanMessage("h").IsHuman()).To(BeTrue())
			Expect(message.NewAIMessage("a").IsAI()).To(BeTrue())
			Expect(message.NewToolMessage("t").IsTool()).To(BeTrue())
		})

		It("should refuse structural roles", func() {
			_, err := message.New(message.RolePlaceholder, "x")
			Expect(errors.IsInvalidRole(err)).To(BeTrue())
		})

		It("should report empty content", func() {
			Expect(message.NewHumanMessage("   ").IsEmpty()).To(BeTrue())
			Expect(message.NewHumanMessage("hi").IsEmpty()).To(BeFalse())
		})
	})

	Describe("JSON", func() {
		It("should encode role and content", func() {
			data, err := json.Marshal(message.NewHumanMessage("hey"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(MatchJSON(`{"role":"human","content":"hey"}`))
		})

		It("should reject structural roles when decoding", func() {
			var m message.Message
			err := json.Unmarshal([]byte(`{"role":"placeholder","content":"x"}`), &m)
			Expect(errors.IsInvalidRole(err)).To(BeTrue())
		})
	})

	Describe("ParseHistory", func() {
		It("should decode a JSON array of messages", func() {
			msgs, err := message.ParseHistory(`[{"role":"human","content":"hey"},{"role":"AI","content":"hello"}]`)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(Equal([]message.Message{
				message.NewHumanMessage("hey"),
				message.NewAIMessage("hello"),
			}))
		})

		It("should fail on malformed JSON", func() {
			_, err := message.ParseHistory(`[{"role":"human"`)
			Expect(errors.IsMalformed(err)).To(BeTrue())
		})

		It("should fail on unknown roles", func() {
			_, err := message.ParseHistory(`[{"role":"narrator","content":"x"}]`)
			Expect(errors.IsInvalidRole(err)).To(BeTrue())
		})

		It("should report null elements and structural roles as invalid roles", func() {
			_, err := message.ParseHistory(`[null]`)
			Expect(errors.IsInvalidRole(err)).To(BeTrue())

			_, err = message.ParseHistory(`[{"role":"placeholder","content":"x"}]`)
			Expect(errors.IsInvalidRole(err)).To(BeTrue())
			Expect(errors.IsMalformed(err)).To(BeFalse())
		})

		It("should round trip through MarshalHistory", func() {
			msgs := []message.Message{message.NewSystemMessage("s"), message.NewToolMessage("t")}
			data, err := message.MarshalHistory(msgs)
			Expect(err).NotTo(HaveOccurred())

			decoded, err := message.ParseHistory(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(msgs))
		})

		It("should encode nil history as an empty array", func() {
			data, err := message.MarshalHistory(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal("[]"))
		})
	})

	Describe("langchaingo bridge", func() {
		It("should map roles onto llms message types", func() {
			Expect(message.NewSystemMessage("s").ToChatMessage()).To(Equal(llms.SystemChatMessage{Content: "s"}))
			Expect(message.NewHumanMessage("h").ToChatMessage()).To(Equal(llms.HumanChatMessage{Content: "h"}))
			Expect(message.NewAIMessage("a").ToChatMessage()).To(Equal(llms.AIChatMessage{Content: "a"}))
			Expect(message.NewToolMessage("t").ToChatMessage().GetType()).To(Equal(llms.ChatMessageTypeTool))
		})

		It("should build message content parts", func() {
			mc := message.NewAIMessage("done").ToMessageContent()
			Expect(mc.Role).To(Equal(llms.ChatMessageTypeAI))
			Expect(mc.Parts).To(HaveLen(1))
			Expect(mc.Parts[0]).To(Equal(llms.TextContent{Text: "done"}))
		})

		It("should convert back from chat messages", func() {
			msgs, err := message.FromChatMessages([]llms.ChatMessage{
				llms.SystemChatMessage{Content: "s"},
				llms.GenericChatMessage{Role: "Human", Content: "g"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(Equal([]message.Message{
				message.NewSystemMessage("s"),
				message.NewHumanMessage("g"),
			}))

			_, err = message.FromChatMessage(llms.FunctionChatMessage{Name: "f", Content: "x"})
			Expect(errors.IsInvalidRole(err)).To(BeTrue())
		})

		It("should render a buffer string", func() {
			out, err := message.BufferString([]message.Message{
				message.NewSystemMessage("Sys msg"),
				message.NewHumanMessage("Hi Sam"),
				message.NewAIMessage("Hello"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("system: Sys msg\nhuman: Hi Sam\nai: Hello"))
		})
	})
})
