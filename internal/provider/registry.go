// Package provider normalizes heterogeneous LLM vendor APIs behind one
// contract and accounts for retries, cost and latency per call.
package provider

import (
	"fmt"
	"sort"

	"github.com/kovalenq/pressroom/pkg/models"
)

// Registry maps model identifiers to vendor adapters. It is populated once
// at process start and passed by reference to the generation service; there
// is no global instance and no runtime mutation.
type Registry struct {
	adapters map[string]models.Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]models.Provider)}
}

// Register binds a model id to an adapter. Later registrations for the same
// model win, which lets config override defaults.
func (r *Registry) Register(modelID string, p models.Provider) {
	r.adapters[modelID] = p
}

// Resolve returns the adapter serving the model id.
func (r *Registry) Resolve(modelID string) (models.Provider, error) {
	p, ok := r.adapters[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %q", ErrUnknownModel, modelID)
	}
	return p, nil
}

// Models lists the registered model ids, sorted.
func (r *Registry) Models() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
