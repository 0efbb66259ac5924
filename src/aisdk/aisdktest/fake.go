// Package aisdktest provides in-memory aisdk implementations for tests.
package aisdktest

import (
	"context"
	"io"
	"sync"

	"github.com/elee1766/convo/src/aisdk"
)

var (
	_ aisdk.StreamInterface = (*Stream)(nil)
	_ aisdk.ModelClient     = (*ModelClient)(nil)
)

// Stream replays a fixed list of text fragments, one chunk per Read.
type Stream struct {
	fragments []string
	pos       int
	closed    bool

	// Err, if set, is returned once all fragments were read instead of io.EOF.
	Err error
	// OnRead, if set, is called with the index of each fragment before it is returned.
	OnRead func(i int)
}

// NewStream creates a stream that yields the given fragments then io.EOF.
func NewStream(fragments ...string) *Stream {
	return &Stream{fragments: fragments}
}

// Read returns the next fragment as a stream chunk.
func (s *Stream) Read() (*aisdk.StreamChunk, error) {
	if s.closed {
		return nil, io.ErrClosedPipe
	}
	if s.pos >= len(s.fragments) {
		if s.Err != nil {
			return nil, s.Err
		}
		return nil, io.EOF
	}
	i := s.pos
	s.pos++
	if s.OnRead != nil {
		s.OnRead(i)
	}
	return &aisdk.StreamChunk{
		ID: "fake",
		Choices: []aisdk.Choice{{
			Delta: &aisdk.Message{Role: aisdk.RoleAssistant, Content: s.fragments[i]},
		}},
	}, nil
}

// Close marks the stream closed.
func (s *Stream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	return s.closed
}

// ModelClient returns queued streams in order and records every request.
type ModelClient struct {
	mu       sync.Mutex
	streams  []aisdk.StreamInterface
	requests []*aisdk.ChatCompletionRequest

	// StreamErr, if set, is returned by CreateChatCompletionStream.
	StreamErr error
	Info      aisdk.ModelInfo
}

// NewModelClient creates a fake client for the named model.
func NewModelClient(model string, streams ...aisdk.StreamInterface) *ModelClient {
	return &ModelClient{
		streams: streams,
		Info:    aisdk.ModelInfo{ID: model},
	}
}

// Push queues another stream.
func (c *ModelClient) Push(stream aisdk.StreamInterface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streams = append(c.streams, stream)
}

// Requests returns the requests received so far.
func (c *ModelClient) Requests() []*aisdk.ChatCompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*aisdk.ChatCompletionRequest(nil), c.requests...)
}

// CreateChatCompletion aggregates the next queued stream into a response.
func (c *ModelClient) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	stream, err := c.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	agg := aisdk.NewStreamAggregator()
	if err := aisdk.StreamToCallback(stream, func(chunk *aisdk.StreamChunk) error {
		agg.AddChunk(chunk)
		return nil
	}); err != nil {
		return nil, err
	}
	return agg.ToResponse(), nil
}

// CreateChatCompletionStream pops the next queued stream.
func (c *ModelClient) CreateChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.StreamErr != nil {
		return nil, c.StreamErr
	}
	if len(c.streams) == 0 {
		return NewStream(), nil
	}
	s := c.streams[0]
	c.streams = c.streams[1:]
	return s, nil
}

// GetModelInfo returns the configured model info.
func (c *ModelClient) GetModelInfo() *aisdk.ModelInfo {
	return &c.Info
}
