package conversation

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elee1766/convo/src/aisdk"
	"github.com/elee1766/convo/src/aisdk/aisdktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	now := t0
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestAccumulatorConsume(t *testing.T) {
	var out bytes.Buffer
	c := New("m")
	c.AppendUser("hello", t0)

	stream := aisdktest.NewStream("Hel", "lo", " there")
	acc := NewAccumulator(&out, c, JoinSpace, fixedClock())

	n, err := acc.Consume(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, stream.Closed())

	assert.Equal(t, "Hello there", out.String())
	require.Len(t, c.Messages, 2)
	assert.Equal(t, RoleModel, c.Messages[1].Role)
	assert.Equal(t, "Hel lo  there", c.Messages[1].Content)
	assert.True(t, c.Messages[1].Timestamp.Equal(t0.Add(3*time.Second)))
}

func TestAccumulatorSkipsEmptyChunks(t *testing.T) {
	var out bytes.Buffer
	c := New("m")
	stream := aisdktest.NewStream("", "a", "", "b")

	n, err := NewAccumulator(&out, c, JoinSpace, nil).Consume(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, c.Messages, 1)
	assert.Equal(t, "a b", c.Messages[0].Content)
}

func TestAccumulatorEmptyStream(t *testing.T) {
	var out bytes.Buffer
	c := New("m")
	c.AppendUser("hello", t0)

	n, err := NewAccumulator(&out, c, JoinSpace, nil).Consume(context.Background(), aisdktest.NewStream())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, c.Messages, 1)
	assert.Empty(t, out.String())
}

func TestAccumulatorCancelMidStream(t *testing.T) {
	var out bytes.Buffer
	c := New("m")
	c.AppendUser("hello", t0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := aisdktest.NewStream("Par", "tial", "never", "seen")
	stream.OnRead = func(i int) {
		if i == 1 {
			cancel()
		}
	}

	n, err := NewAccumulator(&out, c, JoinSpace, nil).Consume(ctx, stream)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Partial", out.String())
	assert.Equal(t, "Par tial", c.Messages[1].Content)
	assert.True(t, stream.Closed())
}

func TestAccumulatorStreamError(t *testing.T) {
	var out bytes.Buffer
	c := New("m")

	boom := errors.New("connection reset")
	stream := aisdktest.NewStream("a")
	stream.Err = boom

	n, err := NewAccumulator(&out, c, JoinSpace, nil).Consume(context.Background(), stream)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestAccumulatorRecordsFinishReason(t *testing.T) {
	c := New("m")
	stream := &finishStream{}

	acc := NewAccumulator(&bytes.Buffer{}, c, JoinConcat, nil)
	_, err := acc.Consume(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "stop", acc.FinishReason())
	require.NotNil(t, acc.Usage())
	assert.Equal(t, 12, acc.Usage().TotalTokens)
}

// finishStream emits one text chunk followed by a final chunk carrying
// only the finish reason and usage.
type finishStream struct {
	n int
}

func (s *finishStream) Read() (*aisdk.StreamChunk, error) {
	s.n++
	switch s.n {
	case 1:
		return &aisdk.StreamChunk{Choices: []aisdk.Choice{{Delta: &aisdk.Message{Content: "ok"}}}}, nil
	case 2:
		return &aisdk.StreamChunk{
			Choices: []aisdk.Choice{{Delta: &aisdk.Message{}, FinishReason: "stop"}},
			Usage:   &aisdk.Usage{TotalTokens: 12},
		}, nil
	}
	return nil, nil
}

func (s *finishStream) Close() error { return nil }
