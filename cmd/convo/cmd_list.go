package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/elee1766/convo/src/app"
	"github.com/elee1766/convo/src/storage"
)

const previewWidth = 48

// ListCmd lists stored conversations
type ListCmd struct {
	Limit  int    `short:"n" default:"20" help:"Maximum conversations to show (0 for all)"`
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
}

// Run executes the list command
func (c *ListCmd) Run(cli *CLI, logger *slog.Logger) error {
	ctx := context.Background()
	a, err := cli.newApp(ctx, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := listConversations(ctx, a, c.Limit)
	if err != nil {
		return err
	}

	switch c.Format {
	case "json":
		return printEntriesJSON(os.Stdout, entries)
	default:
		return printEntriesTable(os.Stdout, entries)
	}
}

// listConversations refreshes the index from the conversation files and
// reads it back. Without an index the files are listed directly.
func listConversations(ctx context.Context, a *app.App, limit int) ([]*storage.Entry, error) {
	summaries, err := a.Conversations.List()
	if err != nil {
		return nil, err
	}

	if a.Index != nil {
		if err := a.Index.Sync(ctx, summaries); err != nil {
			a.Logger.Warn("failed to refresh conversation index", "error", err)
		} else {
			return a.Index.List(ctx, limit)
		}
	}

	entries := make([]*storage.Entry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, storage.EntryFromSummary(a.Conversations.Dir(), s))
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func printEntriesJSON(w io.Writer, entries []*storage.Entry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

func printEntriesTable(w io.Writer, entries []*storage.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No conversations found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUpdated\tMessages\tPreview")
	fmt.Fprintln(tw, "---\t-------\t--------\t-------")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			e.ID, formatTime(e.UpdatedAt), e.MessageCount, preview(e.Preview))
	}
	return tw.Flush()
}

// preview flattens s to one line and truncates it to previewWidth cells.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return ansi.Truncate(s, previewWidth, "…")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
