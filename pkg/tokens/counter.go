package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/killallgit/promptforge/pkg/logger"
	"github.com/killallgit/promptforge/pkg/message"
)

const (
	// per-message markers such as <|start|>role<|end|>
	messageOverhead = 4
	// every reply is primed with the assistant role
	replyOverhead = 3
)

// Counter counts tokens in rendered prompts
type Counter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.RWMutex
}

// NewCounter creates a counter using the encoding for modelName. When the
// encoding cannot be loaded (it is fetched on first use) the counter falls
// back to estimation; Exact reports which mode is active.
func NewCounter(modelName string) *Counter {
	encodingName := encodingForModel(modelName)

	encoder, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		logger.Warn("Token encoding %s unavailable, estimating instead: %v", encodingName, err)
		return &Counter{}
	}

	return &Counter{encoder: encoder}
}

// Exact reports whether counts come from a real tokenizer.
func (c *Counter) Exact() bool {
	return c.encoder != nil
}

// CountTokens counts the number of tokens in text
func (c *Counter) CountTokens(text string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.encoder == nil {
		return estimateTokens(text)
	}
	return len(c.encoder.Encode(text, nil, nil))
}

// CountMessages counts tokens for a rendered conversation, including the
// approximate framing overhead chat models add.
func (c *Counter) CountMessages(msgs []message.Message) int {
	if len(msgs) == 0 {
		return 0
	}

	total := replyOverhead
	for _, m := range msgs {
		total += c.CountTokens(m.Role.String()) + c.CountTokens(m.Content) + messageOverhead
	}
	return total
}

// encodingForModel returns the encoding name for a model
func encodingForModel(modelName string) string {
	model := strings.ToLower(modelName)

	switch {
	case strings.Contains(model, "davinci"), strings.Contains(model, "curie"), strings.Contains(model, "code"):
		return "p50k_base"
	default:
		// works reasonably for local models too
		return "cl100k_base"
	}
}

// estimateTokens approximates a count as the larger of the word count and
// a quarter of the byte length.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	chars := len(text) / 4
	if words > chars {
		return words
	}
	return chars
}
