package llmclient

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/elee1766/convo/src/aisdk"
)

const maxEventSize = 1 << 20

var (
	dataPrefix = []byte("data:")
	doneMarker = []byte("[DONE]")
)

var _ aisdk.StreamInterface = (*eventStream)(nil)

// eventStream decodes a server-sent-events body into stream chunks, one
// chunk per Read.
type eventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  *slog.Logger
	done    bool
	closed  bool
}

func newEventStream(body io.ReadCloser, logger *slog.Logger) *eventStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &eventStream{
		body:    body,
		scanner: scanner,
		logger:  logger,
	}
}

// Read blocks until the next data event arrives. It returns io.EOF after
// the [DONE] marker or when the body ends.
func (s *eventStream) Read() (*aisdk.StreamChunk, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 || line[0] == ':' {
			continue
		}
		if !bytes.HasPrefix(line, dataPrefix) {
			// event:, id:, retry: fields carry nothing we use
			continue
		}

		data := bytes.TrimSpace(line[len(dataPrefix):])
		if bytes.Equal(data, doneMarker) {
			s.done = true
			return nil, io.EOF
		}

		return decodeEvent(data)
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	s.done = true
	return nil, io.EOF
}

// Close releases the response body.
func (s *eventStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

func decodeEvent(data []byte) (*aisdk.StreamChunk, error) {
	var envelope struct {
		Error *errorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &StreamError{Line: string(data), Err: err}
	}
	if envelope.Error != nil {
		apiErr := &APIError{StatusCode: 200}
		fillAPIError(apiErr, envelope.Error)
		return nil, apiErr
	}

	var chunk aisdk.StreamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, &StreamError{Line: string(data), Err: err}
	}
	return &chunk, nil
}

// IsStreamError reports whether err came from a malformed event.
func IsStreamError(err error) bool {
	var se *StreamError
	return errors.As(err, &se)
}
