package message_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/killallgit/promptforge/pkg/message"
)

var _ = Describe("ParseTranscript", func() {
	It("should split alternating role lines", func() {
		msgs, err := message.ParseTranscript("human: What is 5 + 5?\nai: 10\n\nhuman: What is 6 + 6?\nai: 12\n\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(Equal([]message.Message{
			message.NewHumanMessage("What is 5 + 5?"),
			message.NewAIMessage("10"),
			message.NewHumanMessage("What is 6 + 6?"),
			message.NewAIMessage("12"),
		}))
	})

	It("should match role keywords case-insensitively", func() {
		msgs, err := message.ParseTranscript("Human: hi\nAI: hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Role).To(Equal(message.RoleHuman))
		Expect(msgs[1].Role).To(Equal(message.RoleAI))
	})

	It("should continue the previous message on lines without a role", func() {
		msgs, err := message.ParseTranscript("human: first line\nsecond line\nai: ok")
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Content).To(Equal("first line\nsecond line"))
	})

	It("should treat leading lines as a system message", func() {
		msgs, err := message.ParseTranscript("Answer briefly.\nhuman: 2 + 2?")
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(Equal([]message.Message{
			message.NewSystemMessage("Answer briefly."),
			message.NewHumanMessage("2 + 2?"),
		}))
	})

	It("should not treat structural roles or unknown words as keywords", func() {
		msgs, err := message.ParseTranscript("human: note\nplaceholder: x\nTime: 10:30")
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].Content).To(Equal("note\nplaceholder: x\nTime: 10:30"))
	})

	It("should return no messages for empty text", func() {
		msgs, err := message.ParseTranscript("\n\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(BeEmpty())
	})

	It("should invert FormatTranscript", func() {
		in := []message.Message{message.NewHumanMessage("q"), message.NewAIMessage("a")}
		out, err := message.ParseTranscript(message.FormatTranscript(in))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(in))
	})
})
