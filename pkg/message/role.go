package message

import (
	"strings"

	"github.com/killallgit/promptforge/pkg/errors"
)

// Role is the speaker category of a message, or a structural marker used
// while building chat templates.
type Role string

const (
	RoleSystem        Role = "system"
	RoleHuman         Role = "human"
	RoleAI            Role = "ai"
	RoleTool          Role = "tool"
	RolePlaceholder   Role = "placeholder"
	RoleFewShotPrompt Role = "fewshotprompt"
)

// Roles lists every role in canonical order.
var Roles = []Role{RoleSystem, RoleHuman, RoleAI, RoleTool, RolePlaceholder, RoleFewShotPrompt}

// ParseRole maps a role name to a Role, ignoring case and surrounding space.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", errors.InvalidRole("unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAI, RoleTool, RolePlaceholder, RoleFewShotPrompt:
		return true
	}
	return false
}

// IsConcrete reports whether a Message may carry r.
func (r Role) IsConcrete() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAI, RoleTool:
		return true
	}
	return false
}

// IsStructural reports whether r only marks a chat template slot.
func (r Role) IsStructural() bool {
	return r == RolePlaceholder || r == RoleFewShotPrompt
}

// ToMessage converts content into a message spoken by r. Only system, human
// and ai can produce a message this way; tool messages need NewToolMessage.
func (r Role) ToMessage(content string) (Message, error) {
	switch r {
	case RoleSystem, RoleHuman, RoleAI:
		return Message{Role: r, Content: content}, nil
	default:
		return Message{}, errors.InvalidRole("role %q cannot produce a message", r)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, errors.InvalidRole("unknown role %q", string(r))
	}
	return []byte(r), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
