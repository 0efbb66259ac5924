// Package session runs the interactive chat loop: read a line, route it to
// a conversation, stream the model's reply and persist the transcript.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/elee1766/convo/src/aisdk"
	"github.com/elee1766/convo/src/conversation"
)

// DefaultPrompt is printed before each line is read.
const DefaultPrompt = "\n>>> "

// maxLineSize bounds a single input line. Pasted documents can run well
// past bufio's default token size.
const maxLineSize = 16 << 20

// Config holds the immutable settings of a session.
type Config struct {
	Preamble string
	Join     conversation.JoinMode
	Prompt   string
	Now      func() time.Time
	// Notice styles status lines such as the saved notice.
	Notice func(string) string
}

// Recorder is notified after every successful save.
type Recorder interface {
	Record(ctx context.Context, summary conversation.Summary) error
}

// Result describes how a session ended.
type Result struct {
	ConversationID string
	Path           string
	Turns          int
	Interrupted    bool
	Saved          bool
}

// Loop is a single interactive session. It is not safe for concurrent use.
type Loop struct {
	cfg      Config
	store    *conversation.Store
	router   *conversation.Router
	client   aisdk.ModelClient
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger
	recorder Recorder

	state State
	conv  *conversation.Conversation
	id    string
	path  string
	turns int
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithRecorder registers a recorder called after each save.
func WithRecorder(r Recorder) Option {
	return func(l *Loop) {
		l.recorder = r
	}
}

// New creates a session reading lines from in and writing replies to out.
func New(cfg Config, store *conversation.Store, client aisdk.ModelClient, in io.Reader, out io.Writer, opts ...Option) *Loop {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.Join == "" {
		cfg.Join = conversation.JoinSpace
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Notice == nil {
		cfg.Notice = func(s string) string { return s }
	}
	l := &Loop{
		cfg:    cfg,
		store:  store,
		router: conversation.NewRouter(store.NewID),
		client: client,
		in:     in,
		out:    out,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "session")
	return l
}

// State returns the current loop state.
func (l *Loop) State() State {
	return l.state
}

// Run drives the loop until input ends or ctx is cancelled. Cancellation
// is a graceful stop: the active conversation is saved one last time and
// Result.Interrupted is set. Any other failure is returned as an error and
// the turn in progress is not saved.
func (l *Loop) Run(ctx context.Context) (Result, error) {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(l.in, done)

	for {
		l.setState(StateAwaitingInput)
		if _, err := io.WriteString(l.out, l.cfg.Prompt); err != nil {
			return l.result(), fmt.Errorf("failed to write prompt: %w", err)
		}

		var line string
		select {
		case <-ctx.Done():
			return l.interrupt()
		case r, ok := <-lines:
			if !ok {
				return l.finish()
			}
			if r.err != nil {
				return l.result(), fmt.Errorf("failed to read input: %w", r.err)
			}
			line = r.text
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		l.setState(StateResolving)
		input, id := l.router.Route(line)
		if err := l.resolve(id); err != nil {
			return l.result(), err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		l.conv.AppendUser(input, l.cfg.Now())

		l.setState(StateGenerating)
		if err := l.generate(ctx, input); err != nil {
			if ctx.Err() != nil {
				return l.interrupt()
			}
			return l.result(), err
		}

		l.setState(StatePersisting)
		if err := l.persist(ctx); err != nil {
			return l.result(), err
		}
		l.turns++
		if ctx.Err() != nil {
			return l.interrupt()
		}
	}
}

// resolve makes id the active conversation, loading it if it is not
// already in memory.
func (l *Loop) resolve(id string) error {
	if l.conv != nil && id == l.id {
		return nil
	}

	path, id, err := l.store.Resolve(id)
	if err != nil {
		return fmt.Errorf("failed to resolve conversation: %w", err)
	}
	conv, err := l.store.Load(path)
	if err != nil {
		return err
	}

	l.logger.Info("active conversation", "id", id, "path", path, "messages", len(conv.Messages))
	l.conv, l.id, l.path = conv, id, path
	return nil
}

func (l *Loop) generate(ctx context.Context, input string) error {
	req := &aisdk.ChatCompletionRequest{
		Messages: []*aisdk.Message{{
			Role:    aisdk.RoleUser,
			Content: conversation.BuildPrompt(l.cfg.Preamble, l.conv, input),
		}},
	}

	stream, err := l.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to start completion: %w", err)
	}

	acc := conversation.NewAccumulator(l.out, l.conv, l.cfg.Join, l.cfg.Now)
	n, err := acc.Consume(ctx, stream)
	l.logger.Debug("reply streamed",
		"id", l.id,
		"fragments", n,
		"finish_reason", acc.FinishReason())
	if err != nil {
		return err
	}
	l.conv.CloseReply()
	return nil
}

// persist saves the active conversation. The save itself ignores ctx so a
// cancelled session can still write its final state.
func (l *Loop) persist(ctx context.Context) error {
	if err := l.store.Save(l.path, l.conv); err != nil {
		return err
	}
	if l.recorder != nil {
		summary := conversation.Summarize(l.id, l.path, l.conv)
		if err := l.recorder.Record(context.WithoutCancel(ctx), summary); err != nil {
			l.logger.Warn("failed to record conversation", "id", l.id, "error", err)
		}
	}
	return nil
}

func (l *Loop) interrupt() (Result, error) {
	l.setState(StateInterrupted)
	fmt.Fprintln(l.out, "\n"+l.cfg.Notice("Generation Interrupted..."))

	res, err := l.finish()
	res.Interrupted = true
	return res, err
}

// finish performs the final save and reports which conversation was saved.
func (l *Loop) finish() (Result, error) {
	if l.state != StateInterrupted {
		fmt.Fprintln(l.out)
	}
	defer l.setState(StateTerminated)

	if l.conv == nil {
		fmt.Fprintln(l.out, l.cfg.Notice("Stopped Safely, no conversation was started"))
		return l.result(), nil
	}

	l.setState(StatePersisting)
	if err := l.persist(context.Background()); err != nil {
		return l.result(), fmt.Errorf("final save failed: %w", err)
	}
	fmt.Fprintln(l.out, l.cfg.Notice(fmt.Sprintf("Stopped Safely and Conversation %s History Saved", l.id)))

	res := l.result()
	res.Saved = true
	return res, nil
}

func (l *Loop) result() Result {
	return Result{
		ConversationID: l.id,
		Path:           l.path,
		Turns:          l.turns,
	}
}

func (l *Loop) setState(s State) {
	if l.state != s {
		l.logger.Debug("state", "from", l.state, "to", s)
	}
	l.state = s
}

type lineResult struct {
	text string
	err  error
}

// readLines feeds lines from r into the returned channel until EOF, an
// error, or done is closed. The channel is closed afterwards.
func readLines(r io.Reader, done <-chan struct{}) <-chan lineResult {
	ch := make(chan lineResult)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case ch <- lineResult{text: strings.TrimSuffix(scanner.Text(), "\r")}:
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case ch <- lineResult{err: err}:
			case <-done:
			}
		}
	}()
	return ch
}
