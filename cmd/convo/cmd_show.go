package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/elee1766/convo/src/conversation"
	"github.com/elee1766/convo/src/theme"
	"github.com/spf13/afero"
)

// ShowCmd prints one conversation
type ShowCmd struct {
	ID    string `arg:"" help:"Conversation ID"`
	Raw   bool   `help:"Print the stored JSON instead of a transcript"`
	Width int    `default:"0" help:"Wrap message bodies at this width (0 disables wrapping)"`
}

// Run executes the show command
func (c *ShowCmd) Run(cli *CLI, logger *slog.Logger) error {
	a, err := cli.newApp(context.Background(), logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	conv, err := loadExisting(a.FS, a.Conversations, c.ID)
	if err != nil {
		return err
	}

	if c.Raw {
		data, err := conversation.Encode(conv)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	return renderTranscript(os.Stdout, c.ID, conv, c.Width)
}

// loadExisting loads id, failing if it was never saved.
func loadExisting(fsys afero.Fs, store *conversation.Store, id string) (*conversation.Conversation, error) {
	path, err := store.Lookup(id)
	if err != nil {
		return nil, err
	}
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("conversation %s not found in %s", id, store.Dir())
	}
	return store.Load(path)
}

func renderTranscript(w io.Writer, id string, conv *conversation.Conversation, width int) error {
	fmt.Fprintln(w, theme.Header("Conversation "+id))
	fmt.Fprintln(w, theme.Muted(fmt.Sprintf("model %s, %d messages", conv.Model, len(conv.Messages))))

	for _, m := range conv.Messages {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", theme.RoleLabel(string(m.Role)), theme.Muted(formatTime(m.Timestamp.Time)))
		if _, err := fmt.Fprintln(w, theme.Body(m.Content, width)); err != nil {
			return err
		}
	}
	return nil
}
