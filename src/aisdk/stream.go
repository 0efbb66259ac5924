package aisdk

import (
	"errors"
	"io"
	"strings"
)

// StreamCallback is a function called for each chunk in a stream.
type StreamCallback func(chunk *StreamChunk) error

// StreamToCallback reads a stream and calls the callback for each chunk.
// The stream is closed before returning.
func StreamToCallback(stream StreamInterface, callback StreamCallback) error {
	defer stream.Close()

	for {
		chunk, err := stream.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if chunk == nil {
			return nil
		}

		if err := callback(chunk); err != nil {
			return err
		}
	}
}

// CollectStreamContent reads a stream and collects all content into a single string.
func CollectStreamContent(stream StreamInterface) (string, error) {
	var content strings.Builder

	err := StreamToCallback(stream, func(chunk *StreamChunk) error {
		content.WriteString(chunk.Content())
		return nil
	})

	return content.String(), err
}

// StreamAggregator helps aggregate streaming responses into a final response.
type StreamAggregator struct {
	ID      string
	Created int64
	Model   string
	Content strings.Builder

	FinishReason string
	Usage        *Usage
}

// NewStreamAggregator creates a new stream aggregator.
func NewStreamAggregator() *StreamAggregator {
	return &StreamAggregator{}
}

// AddChunk processes a stream chunk and updates the aggregated state.
func (a *StreamAggregator) AddChunk(chunk *StreamChunk) {
	if a.ID == "" {
		a.ID = chunk.ID
	}
	if a.Created == 0 {
		a.Created = chunk.Created
	}
	if a.Model == "" {
		a.Model = chunk.Model
	}
	if chunk.Usage != nil {
		a.Usage = chunk.Usage
	}

	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		if choice.Delta != nil {
			a.Content.WriteString(choice.Delta.Content)
		}
		if choice.FinishReason != "" {
			a.FinishReason = choice.FinishReason
		}
	}
}

// ToResponse converts the aggregated stream into a ChatCompletionResponse.
func (a *StreamAggregator) ToResponse() *ChatCompletionResponse {
	response := &ChatCompletionResponse{
		ID:      a.ID,
		Object:  "chat.completion",
		Created: a.Created,
		Model:   a.Model,
		Choices: []Choice{
			{
				Message: Message{
					Role:    RoleAssistant,
					Content: a.Content.String(),
				},
				FinishReason: a.FinishReason,
			},
		},
	}
	if a.Usage != nil {
		response.Usage = *a.Usage
	}
	return response
}
