package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// InMemoryPricingRegistry stores pricing configs in memory.
type InMemoryPricingRegistry struct {
	mu      sync.RWMutex
	pricing map[string]PricingConfig
}

// NewInMemoryPricingRegistry creates a new in-memory pricing registry.
func NewInMemoryPricingRegistry() *InMemoryPricingRegistry {
	return &InMemoryPricingRegistry{
		mu:      sync.RWMutex{},
		pricing: make(map[string]PricingConfig),
	}
}

// GetPricing retrieves pricing for a model.
func (r *InMemoryPricingRegistry) GetPricing(
	_ context.Context,
	model string,
) (PricingConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, exists := r.pricing[model]
	if !exists {
		return PricingConfig{}, fmt.Errorf("pricing not found for model: %s", model)
	}

	return config, nil
}

// NewDefaultPricingRegistry creates a registry pre-seeded with pricing for
// the models commonly used in debates. Unknown models cost zero.
func NewDefaultPricingRegistry() *InMemoryPricingRegistry {
	r := NewInMemoryPricingRegistry()
	ctx := context.Background()

	defaults := map[string]PricingConfig{
		"gpt-4":         {InputCostPer1K: 0.03, OutputCostPer1K: 0.06},
		"gpt-4-turbo":   {InputCostPer1K: 0.01, OutputCostPer1K: 0.03},
		"gpt-4o":        {InputCostPer1K: 0.0025, OutputCostPer1K: 0.01},
		"gpt-4o-mini":   {InputCostPer1K: 0.00015, OutputCostPer1K: 0.0006},
		"gpt-3.5-turbo": {InputCostPer1K: 0.0005, OutputCostPer1K: 0.0015},
	}
	for model, cfg := range defaults {
		_ = r.RegisterPricing(ctx, model, cfg)
	}

	return r
}

// RegisterPricing adds pricing for a model.
func (r *InMemoryPricingRegistry) RegisterPricing(
	_ context.Context,
	model string,
	config PricingConfig,
) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pricing[model] = config
	return nil
}
