// Package conversation holds the persisted chat transcript and the pieces of
// the session loop that operate on it: the file-backed store, the input
// router, the prompt builder and the streaming reply accumulator.
package conversation

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role tags the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// JoinMode controls how streamed fragments of one reply are combined.
type JoinMode string

const (
	// JoinSpace inserts a single space before every continuation fragment.
	// Transcripts written by earlier versions of this tool use this form.
	JoinSpace JoinMode = "space"
	// JoinConcat appends fragments verbatim.
	JoinConcat JoinMode = "concat"
)

// ParseJoinMode validates s as a JoinMode.
func ParseJoinMode(s string) (JoinMode, error) {
	switch JoinMode(s) {
	case JoinSpace, JoinConcat:
		return JoinMode(s), nil
	}
	return "", fmt.Errorf("invalid join mode %q", s)
}

// Message is one transcript entry.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
}

// Conversation is the persisted transcript. Messages are append-only except
// for the open reply, which grows while a response is streamed.
type Conversation struct {
	Model    string     `json:"model"`
	Messages []*Message `json:"messages"`

	// reply is the model message still receiving fragments for the
	// current turn. It is never persisted.
	reply *Message
}

// New creates an empty conversation for model.
func New(model string) *Conversation {
	return &Conversation{
		Model:    model,
		Messages: []*Message{},
	}
}

// UnmarshalJSON implements json.Unmarshaler. A decoded conversation has no
// open reply.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	type plain Conversation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Conversation(p)
	if c.Messages == nil {
		c.Messages = []*Message{}
	}
	c.reply = nil
	return nil
}

// AppendUser appends a user message and closes any open reply.
func (c *Conversation) AppendUser(content string, now time.Time) *Message {
	c.CloseReply()
	msg := &Message{Role: RoleUser, Content: content, Timestamp: NewTimestamp(now)}
	c.Messages = append(c.Messages, msg)
	return msg
}

// AppendFragment adds a streamed fragment to the open reply, opening a new
// model message if none is open.
func (c *Conversation) AppendFragment(fragment string, join JoinMode, now time.Time) *Message {
	if msg := c.OpenReply(); msg != nil {
		if join == JoinSpace {
			msg.Content += " "
		}
		msg.Content += fragment
		msg.Timestamp = NewTimestamp(now)
		return msg
	}

	msg := &Message{Role: RoleModel, Content: fragment, Timestamp: NewTimestamp(now)}
	c.Messages = append(c.Messages, msg)
	c.reply = msg
	return msg
}

// OpenReply returns the model message receiving fragments, or nil.
func (c *Conversation) OpenReply() *Message {
	return c.reply
}

// CloseReply finalizes the open reply, if any.
func (c *Conversation) CloseReply() {
	c.reply = nil
}

// UserHistory returns the content of every user message in order.
func (c *Conversation) UserHistory() []string {
	var history []string
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			history = append(history, msg.Content)
		}
	}
	return history
}

// Last returns the most recent message, or nil.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}
