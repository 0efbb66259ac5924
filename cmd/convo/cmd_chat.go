package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/elee1766/convo/src/config"
	"github.com/elee1766/convo/src/session"
	"github.com/elee1766/convo/src/theme"
)

// ChatCmd runs the interactive session. End a line with --convo=<id> to
// switch conversations; Ctrl-C saves and exits.
type ChatCmd struct{}

func (c *ChatCmd) Run(cli *CLI, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := cli.newApp(ctx, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	preamble, err := config.LoadPreamble(a.FS, a.Config.PrepromptPath)
	if err != nil {
		return err
	}

	loop, err := a.NewSession(ctx, session.Config{
		Preamble: preamble,
		Prompt:   "\n" + theme.Prompt(">>>") + " ",
		Notice:   theme.Notice,
	}, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	res, err := loop.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("session ended",
		"conversation", res.ConversationID,
		"turns", res.Turns,
		"interrupted", res.Interrupted)

	if res.Interrupted {
		return errInterrupted
	}
	return nil
}
