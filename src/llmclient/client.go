// Package llmclient implements an OpenAI-compatible chat completion client.
// The default base URL targets the Mistral API.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elee1766/convo/src/aisdk"
)

const (
	// DefaultBaseURL is the Mistral API root.
	DefaultBaseURL = "https://api.mistral.ai/v1"
	defaultTimeout = 30 * time.Second
	defaultTTL     = time.Hour
)

var _ aisdk.Provider = (*Client)(nil)

// Client is the completion service API client.
type Client struct {
	config     Config
	httpClient *http.Client
	// streamClient has no overall timeout; a stalled stream blocks until
	// its request context is cancelled.
	streamClient *http.Client
	logger       *slog.Logger
	modelCache   *ModelCache
}

// NewClient creates a new API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.ModelTTL == 0 {
		config.ModelTTL = defaultTTL
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llm_client")

	client := &Client{
		config:       config,
		httpClient:   &http.Client{Timeout: config.Timeout},
		streamClient: &http.Client{},
		logger:       logger,
	}
	client.modelCache = NewModelCache(client, config.ModelTTL)

	return client
}

// createChatCompletion sends a non-streaming chat completion request.
func (c *Client) createChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	logger := c.logger.With("method", "CreateChatCompletion", "model", req.Model)
	logger.Debug("sending chat completion request")

	req.Stream = false
	httpReq, err := c.newJSONRequest(ctx, http.MethodPost, "/chat/completions", req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(resp)
	}

	var result aisdk.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("failed to decode response", "error", err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	logger.Info("chat completion successful", "usage_total", result.Usage.TotalTokens)
	return &result, nil
}

// createChatCompletionStream opens a streaming chat completion. The caller
// owns the returned stream and must Close it.
func (c *Client) createChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	logger := c.logger.With("method", "CreateChatCompletionStream", "model", req.Model)
	logger.Debug("sending streaming chat completion request", "messages", len(req.Messages))

	req.Stream = true
	httpReq, err := c.newJSONRequest(ctx, http.MethodPost, "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.handleError(resp)
	}

	return newEventStream(resp.Body, logger), nil
}

// newJSONRequest creates a new HTTP request with a JSON body and auth headers.
func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		if c.logger.Enabled(ctx, slog.LevelDebug) {
			c.logger.Debug("request body", "path", path, "body", string(data))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// handleError converts a non-200 response into an *APIError.
func (c *Client) handleError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	apiErr := parseAPIError(resp.StatusCode, body)
	apiErr.RequestID = resp.Header.Get("X-Request-ID")
	logAPIError(c.logger, apiErr)
	return apiErr
}

// parseAPIError understands both the nested {"error":{...}} shape and the
// flat {"message":...} shape some providers return.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var nested ErrorResponse
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error != nil {
		fillAPIError(apiErr, nested.Error)
		return apiErr
	}

	var flat errorBody
	if err := json.Unmarshal(body, &flat); err == nil && flat.Message != "" {
		fillAPIError(apiErr, &flat)
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func fillAPIError(dst *APIError, src *errorBody) {
	dst.Message = src.Message
	dst.Type = src.Type
	if src.Code != nil {
		dst.Code = fmt.Sprint(src.Code)
	}
}

// GetModels implements aisdk.Provider.
func (c *Client) GetModels(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	return c.ListModels(ctx)
}
