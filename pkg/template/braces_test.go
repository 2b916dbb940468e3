package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBraceCounts(t *testing.T) {
	tests := []struct {
		input       string
		left, right int
	}{
		{"hello {world", 1, 0},
		{"hello world}", 0, 1},
		{"hello", 0, 0},
		{"hello {big} {{world}}", 3, 3},
		{"hello {{world}}", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.left, CountLeftBraces(tt.input))
			assert.Equal(t, tt.right, CountRightBraces(tt.input))
		})
	}
}

func TestBraceShape(t *testing.T) {
	t.Run("only single braces", func(t *testing.T) {
		assert.True(t, HasOnlySingleBraces("hello {world}"))
		assert.True(t, HasOnlySingleBraces("hello {world} {world}"))

		assert.False(t, HasOnlySingleBraces("hello {world"))
		assert.False(t, HasOnlySingleBraces("hello"))
		assert.False(t, HasOnlySingleBraces("hello world}"))
		assert.False(t, HasOnlySingleBraces("hello {{world}} {world}"))
		assert.False(t, HasOnlySingleBraces("hello {world} {{world}}"))
	})

	t.Run("only double braces", func(t *testing.T) {
		assert.True(t, HasOnlyDoubleBraces("hello {{world}}"))
		assert.True(t, HasOnlyDoubleBraces("{{a}} and {{b}}"))

		assert.False(t, HasOnlyDoubleBraces("hello {{world}"))
		assert.False(t, HasOnlyDoubleBraces("hello {world}"))
		assert.False(t, HasOnlyDoubleBraces("{{{triple}}}"))
		assert.False(t, HasOnlyDoubleBraces("hello"))
	})

	t.Run("no braces", func(t *testing.T) {
		assert.True(t, HasNoBraces("hello"))
		assert.False(t, HasNoBraces("hello {"))
		assert.False(t, HasNoBraces("}"))
	})
}

func TestHasMultipleWordsBetweenBraces(t *testing.T) {
	assert.True(t, HasMultipleWordsBetweenBraces("{one two}"))
	assert.True(t, HasMultipleWordsBetweenBraces("{ one two three }"))
	assert.True(t, HasMultipleWordsBetweenBraces("{{one two}}"))
	assert.True(t, HasMultipleWordsBetweenBraces("{{ one two three }}"))
	assert.True(t, HasMultipleWordsBetweenBraces("{{#each items}}"))

	assert.False(t, HasMultipleWordsBetweenBraces("{ one }"))
	assert.False(t, HasMultipleWordsBetweenBraces("{{ one }}"))
	assert.False(t, HasMultipleWordsBetweenBraces("no braces at all"))

	t.Run("checks every group", func(t *testing.T) {
		assert.True(t, HasMultipleWordsBetweenBraces("{ok} then {not ok}"))
	})
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"name", "_private", "var2", "A_B_C"} {
		assert.True(t, IsValidIdentifier(s), s)
	}
	for _, s := range []string{"", "2var", "has space", "dash-ed", "#each"} {
		assert.False(t, IsValidIdentifier(s), s)
	}
}

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"fmtstring", "Hello {name}, you are {age}", []string{"name", "age"}},
		{"mustache", "Hi {{ first }} {{last}}", []string{"first", "last"}},
		{"deduplicates in order", "{b} {a} {b} {a}", []string{"b", "a"}},
		{"skips invalid identifiers", "{ok} {not ok} {1bad}", []string{"ok"}},
		{"plain text", "nothing here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractVariables(tt.input))
		})
	}
}

func TestExtractPlaceholderVariable(t *testing.T) {
	name, err := ExtractPlaceholderVariable("{history}")
	assert.NoError(t, err)
	assert.Equal(t, "history", name)

	name, err = ExtractPlaceholderVariable("{{ history }}")
	assert.NoError(t, err)
	assert.Equal(t, "history", name)

	_, err = ExtractPlaceholderVariable("no variable")
	assert.Error(t, err)

	_, err = ExtractPlaceholderVariable("{a} {b}")
	assert.Error(t, err)
}
