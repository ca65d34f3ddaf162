package domain

import (
	"context"
	"errors"
)

const tokensPerPriceUnit = 1000.0

// StandardCostCalculator prices a single model response from registered
// per-1K-token rates. Debate totals are aggregated per round by the caller.
type StandardCostCalculator struct {
	pricingRegistry PricingRegistry
}

// NewStandardCostCalculator creates a calculator backed by the given registry.
func NewStandardCostCalculator(registry PricingRegistry) *StandardCostCalculator {
	return &StandardCostCalculator{
		pricingRegistry: registry,
	}
}

// Calculate returns the USD cost for one response's token usage.
func (c *StandardCostCalculator) Calculate(
	ctx context.Context,
	model string,
	usage Usage,
) (float64, error) {
	if model == "" {
		return 0, errors.New("model cannot be empty")
	}

	pricing, err := c.pricingRegistry.GetPricing(ctx, model)
	if err != nil {
		// Unpriced models (the echo provider, custom deployments) cost zero
		// rather than failing the debate.
		//nolint:nilerr // Intentionally returning nil to allow requests with unknown pricing
		return 0, nil
	}

	inputCost := float64(usage.PromptTokens) / tokensPerPriceUnit * pricing.InputCostPer1K
	outputCost := float64(usage.CompletionTokens) / tokensPerPriceUnit * pricing.OutputCostPer1K

	return inputCost + outputCost, nil
}
