package conversation

import (
	"strings"
)

// BuildPrompt assembles the single message sent to the model: the preamble,
// every user message of c joined by newlines, and the current input,
// separated by blank lines. Model replies are not replayed.
func BuildPrompt(preamble string, c *Conversation, input string) string {
	history := strings.Join(c.UserHistory(), "\n")
	return preamble + "\n\n" + history + "\n\n" + input
}
