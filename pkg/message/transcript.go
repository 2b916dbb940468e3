package message

import (
	"bufio"
	"strings"
)

// ParseTranscript splits text written as "Role: content" lines into
// messages. The role keyword is case-insensitive and must name a concrete
// role. A line without a role keyword continues the previous message; lines
// before the first role keyword form a system message. Blank lines are
// skipped.
//
//	human: What is 5 + 5?
//	ai: 10
func ParseTranscript(text string) ([]Message, error) {
	var (
		msgs    []Message
		current *Message
	)

	flush := func() {
		if current != nil {
			msgs = append(msgs, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), len(text)+1)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if role, content, ok := splitRoleLine(line); ok {
			flush()
			current = &Message{Role: role, Content: content}
			continue
		}

		if current == nil {
			current = &Message{Role: RoleSystem, Content: strings.TrimSpace(line)}
			continue
		}
		current.Content += "\n" + strings.TrimSpace(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return msgs, nil
}

// FormatTranscript is the inverse of ParseTranscript for single-line
// contents.
func FormatTranscript(msgs []Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.String()
	}
	return strings.Join(lines, "\n")
}

func splitRoleLine(line string) (Role, string, bool) {
	keyword, content, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	role, err := ParseRole(keyword)
	if err != nil || !role.IsConcrete() {
		return "", "", false
	}
	return role, strings.TrimSpace(content), true
}
