package message_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/message"
)

var _ = Describe("Role", func() {
	Describe("ParseRole", func() {
		DescribeTable("should parse role names case-insensitively",
			func(input string, expected message.Role) {
				role, err := message.ParseRole(input)
				Expect(err).NotTo(HaveOccurred())
				Expect(role).To(Equal(expected))
			},
			Entry("system", "system", message.RoleSystem),
			Entry("Human", "Human", message.RoleHuman),
			Entry("AI", "AI", message.RoleAI),
			Entry("tool", " tool ", message.RoleTool),
			Entry("placeholder", "Placeholder", message.RolePlaceholder),
			Entry("few shot", "FewShotPrompt", message.RoleFewShotPrompt),
		)

		It("should reject unknown roles", func() {
			_, err := message.ParseRole("narrator")
			Expect(errors.IsInvalidRole(err)).To(BeTrue())
		})

		It("should round trip every role through its string form", func() {
			for _, r := range message.Roles {
				parsed, err := message.ParseRole(r.String())
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed).To(Equal(r))
			}
		})
	})

	Describe("ToMessage", func() {
		It("should produce messages for system, human and ai", func() {
			for _, r := range []message.Role{message.RoleSystem, message.RoleHuman, message.RoleAI} {
				msg, err := r.ToMessage("content")
				Expect(err).NotTo(HaveOccurred())
				Expect(msg.Role).To(Equal(r))
				Expect(msg.Content).To(Equal("content"))
			}
		})

		It("should fail for structural and tool roles", func() {
			for _, r := range []message.Role{message.RoleTool, message.RolePlaceholder, message.RoleFewShotPrompt} {
				_, err := r.ToMessage("content")
				Expect(errors.IsInvalidRole(err)).To(BeTrue(), string(r))
			}
		})
	})

	Describe("text marshalling", func() {
		It("should encode as the canonical lowercase name", func() {
			data, err := json.Marshal(map[string]message.Role{"r": message.RoleAI})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`{"r":"ai"}`))
		})

		It("should decode any case", func() {
			var r message.Role
			Expect(r.UnmarshalText([]byte("SYSTEM"))).To(Succeed())
			Expect(r).To(Equal(message.RoleSystem))
		})
	})
})
