package domain

import (
	"context"
	"time"
)

// Provider represents any LLM provider.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider identifier.
	Name() string

	// IsModelSupported checks if the provider supports the given model.
	IsModelSupported(ctx context.Context, model string) bool

	// SupportedModels returns a list of all models this provider supports.
	SupportedModels(ctx context.Context) []string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)

	// GetByModel retrieves a provider that supports the given model.
	GetByModel(ctx context.Context, model string) (Provider, error)
}

// CacheAdapter is the uniform capability shared by all cache backends.
//
// All implementations are fail-open: internal errors are logged and surface
// as a miss on Get and a no-op on Set/Delete/Clear.
type CacheAdapter interface {
	// Get returns the stored value for key, or (nil, false) when absent
	// or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Idempotent.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by this adapter.
	Clear(ctx context.Context) error

	// Close releases background resources (sweep goroutines, connections).
	Close() error
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

// Router determines which provider to use for a request.
type Router interface {
	// Route selects a provider based on request criteria.
	Route(ctx context.Context, req *RouteRequest) (string, error)
}

// RouteRequest contains criteria for provider selection.
type RouteRequest struct {
	Model string
}

// ResponseAnalyzer extracts agreement and confidence signals from free-form
// model output. The default implementation is a best-effort text heuristic;
// callers must not treat its output as a semantic guarantee.
type ResponseAnalyzer interface {
	// ExtractAgreement scans text for agreement or disagreement with each
	// response of the previous round. Labels maps a previous model name to
	// the identifier it was presented under (real name or an anonymized
	// alias such as "Model 2").
	ExtractAgreement(fromModel, text string, previous []ModelResponse, labels map[string]string) []AgreementEdge

	// ExtractConfidence parses a stated confidence value from text,
	// clamped to [0,1]. Returns fallback when no value is present.
	ExtractConfidence(text string, fallback float64) float64
}
