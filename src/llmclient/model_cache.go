package llmclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/elee1766/convo/src/aisdk"
)

// ModelCache caches the /models listing for a fixed TTL
type ModelCache struct {
	mu        sync.RWMutex
	listCache *cachedModelList
	ttl       time.Duration
	client    *Client
	now       func() time.Time
}

type cachedModelList struct {
	models    []*aisdk.ModelInfo
	fetchedAt time.Time
}

// NewModelCache creates a new model cache
func NewModelCache(client *Client, ttl time.Duration) *ModelCache {
	return &ModelCache{
		ttl:    ttl,
		client: client,
		now:    time.Now,
	}
}

// GetModelList gets the model list from cache or fetches it
func (mc *ModelCache) GetModelList(ctx context.Context) ([]*aisdk.ModelInfo, error) {
	if models, ok := mc.cached(); ok {
		return models, nil
	}

	models, err := mc.client.listModelsUncached(ctx)
	if err != nil {
		return nil, err
	}

	mc.mu.Lock()
	mc.listCache = &cachedModelList{
		models:    models,
		fetchedAt: mc.now(),
	}
	mc.mu.Unlock()

	return models, nil
}

// GetModel finds a model by ID or alias in the (possibly refreshed) listing
func (mc *ModelCache) GetModel(ctx context.Context, modelID string) (*aisdk.ModelInfo, error) {
	models, err := mc.GetModelList(ctx)
	if err != nil {
		return nil, err
	}
	for _, model := range models {
		if matchesModel(model, modelID) {
			return model, nil
		}
	}
	return nil, fmt.Errorf("model %s not found", modelID)
}

// Peek returns cached info for modelID without any network access. When
// the model is unknown a stub carrying only the ID is returned.
func (mc *ModelCache) Peek(modelID string) *aisdk.ModelInfo {
	if models, ok := mc.cached(); ok {
		for _, model := range models {
			if matchesModel(model, modelID) {
				return model
			}
		}
	}
	return &aisdk.ModelInfo{ID: modelID}
}

func (mc *ModelCache) cached() ([]*aisdk.ModelInfo, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.listCache != nil && mc.now().Sub(mc.listCache.fetchedAt) < mc.ttl {
		return mc.listCache.models, true
	}
	return nil, false
}
