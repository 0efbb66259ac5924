package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/elee1766/convo/src/aisdk"
)

// ModelsResponse represents the response from the /models endpoint
type ModelsResponse struct {
	Data []*aisdk.ModelInfo `json:"data"`
}

// ListModels returns all available models (with caching)
func (c *Client) ListModels(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	return c.modelCache.GetModelList(ctx)
}

// listModelsUncached returns all available models without caching, sorted by ID
func (c *Client) listModelsUncached(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(resp)
	}

	var modelsResp ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	sort.Slice(modelsResp.Data, func(i, j int) bool {
		return modelsResp.Data[i].ID < modelsResp.Data[j].ID
	})
	return modelsResp.Data, nil
}

// GetModelByID returns a specific model by ID or alias
func (c *Client) GetModelByID(ctx context.Context, modelID string) (*aisdk.ModelInfo, error) {
	return c.modelCache.GetModel(ctx, modelID)
}

// FindModels returns models whose ID or name contains query (case-insensitive)
func (c *Client) FindModels(ctx context.Context, query string) ([]*aisdk.ModelInfo, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var matches []*aisdk.ModelInfo
	for _, model := range models {
		if strings.Contains(strings.ToLower(model.ID), query) ||
			strings.Contains(strings.ToLower(model.Name), query) {
			matches = append(matches, model)
		}
	}
	return matches, nil
}

func matchesModel(model *aisdk.ModelInfo, id string) bool {
	if model.ID == id {
		return true
	}
	for _, alias := range model.Aliases {
		if alias == id {
			return true
		}
	}
	return false
}
