package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/elee1766/convo/src/aisdk"
)

// Accumulator pulls fragments from a completion stream, echoes each one to
// out as soon as it arrives and records it in the conversation's open reply.
type Accumulator struct {
	out  io.Writer
	conv *Conversation
	join JoinMode
	now  func() time.Time
	agg  *aisdk.StreamAggregator
}

// NewAccumulator creates an accumulator writing to out and appending to c.
// A nil now defaults to time.Now.
func NewAccumulator(out io.Writer, c *Conversation, join JoinMode, now func() time.Time) *Accumulator {
	if now == nil {
		now = time.Now
	}
	return &Accumulator{
		out:  out,
		conv: c,
		join: join,
		now:  now,
		agg:  aisdk.NewStreamAggregator(),
	}
}

// Consume reads stream to the end and returns how many fragments were
// recorded. Chunks without text are skipped. When ctx is cancelled the
// fragments received so far stay in the conversation and ctx.Err() is
// returned. The stream is always closed.
func (a *Accumulator) Consume(ctx context.Context, stream aisdk.StreamInterface) (int, error) {
	defer stream.Close()

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		chunk, err := stream.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return n, ctxErr
			}
			return n, fmt.Errorf("failed to read completion stream: %w", err)
		}
		if chunk == nil {
			return n, nil
		}
		a.agg.AddChunk(chunk)

		fragment := chunk.Content()
		if fragment == "" {
			continue
		}
		if _, err := io.WriteString(a.out, fragment); err != nil {
			return n, fmt.Errorf("failed to write output: %w", err)
		}
		a.conv.AppendFragment(fragment, a.join, a.now())
		n++
	}
}

// FinishReason returns the finish reason reported by the stream, if any.
func (a *Accumulator) FinishReason() string {
	return a.agg.FinishReason
}

// Usage returns token usage reported by the stream, or nil.
func (a *Accumulator) Usage() *aisdk.Usage {
	return a.agg.Usage
}
