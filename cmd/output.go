package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/killallgit/promptforge/pkg/errors"
	"github.com/killallgit/promptforge/pkg/logger"
	"github.com/killallgit/promptforge/pkg/message"
)

const (
	outputText     = "text"
	outputMessages = "messages"
	outputJSON     = "json"
)

type outputStyles struct {
	label lipgloss.Style
	dim   lipgloss.Style
	roles map[message.Role]lipgloss.Style
}

// newStyles binds styles to w so colors are dropped when w is not a
// terminal.
func newStyles(w io.Writer) outputStyles {
	r := lipgloss.NewRenderer(w)
	role := func(color string) lipgloss.Style {
		return r.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
	}
	return outputStyles{
		label: r.NewStyle().Foreground(lipgloss.Color("86")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("243")),
		roles: map[message.Role]lipgloss.Style{
			message.RoleSystem: role("170"),
			message.RoleHuman:  role("39"),
			message.RoleAI:     role("42"),
			message.RoleTool:   role("214"),
		},
	}
}

func writeMessages(w io.Writer, format string, color bool, msgs []message.Message, text string) error {
	switch format {
	case outputText:
		_, err := fmt.Fprintln(w, text)
		return err

	case outputMessages:
		s := newStyles(w)
		blocks := make([]string, len(msgs))
		for i, m := range msgs {
			blocks[i] = s.roles[m.Role].Render("["+m.Role.String()+"]") + "\n" + m.Content
		}
		_, err := fmt.Fprintln(w, strings.Join(blocks, "\n\n"))
		return err

	case outputJSON:
		if msgs == nil {
			msgs = []message.Message{}
		}
		data, err := json.MarshalIndent(msgs, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to encode messages")
		}
		out := string(data)
		if color {
			out = highlight(out, "json")
		}
		_, err = fmt.Fprintln(w, out)
		return err

	default:
		return errors.Newf("unknown output format %q (want text, messages or json)", format)
	}
}

// highlight colors source for a terminal, returning it unchanged when the
// language is unknown or formatting fails.
func highlight(source, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		logger.Debug("Failed to tokenize %s output: %v", language, err)
		return source
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, styles.Get("monokai"), iterator); err != nil {
		logger.Debug("Failed to format %s output: %v", language, err)
		return source
	}
	return buf.String()
}
