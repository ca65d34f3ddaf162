package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/quorum/internal/cache"
	"github.com/davidbz/quorum/internal/config"
	"github.com/davidbz/quorum/internal/debate"
	"github.com/davidbz/quorum/internal/domain"
	"github.com/davidbz/quorum/internal/httpserver"
	"github.com/davidbz/quorum/internal/httpserver/middleware"
	"github.com/davidbz/quorum/internal/observability"
	"github.com/davidbz/quorum/internal/provider/echo"
	"github.com/davidbz/quorum/internal/provider/openai"
	"github.com/davidbz/quorum/internal/provider/registry"
	"github.com/davidbz/quorum/internal/routing"
)

// ErrProviderNotConfigured indicates that a provider is not configured and should be skipped.
var ErrProviderNotConfigured = errors.New("provider not configured")

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *httpserver.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(func(logger *zap.Logger) domain.EventPublisher {
		return observability.NewEventBus(logger)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// OpenAI Provider
	if err := container.Provide(func(cfg *openai.Config) (*openai.Provider, error) {
		if cfg.APIKey == "" {
			return nil, ErrProviderNotConfigured
		}

		return openai.NewProvider(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide OpenAI provider: %v", err)
	}

	// Echo Provider (local, keyless; useful for smoke tests)
	if err := container.Provide(echo.NewProvider); err != nil {
		log.Fatalf("Failed to provide echo provider: %v", err)
	}

	// Register providers with registry (invoked for side effects).
	// Each provider is registered in its own Invoke so a missing OpenAI
	// key does not keep the echo provider out of the registry.
	if err := container.Invoke(func(reg domain.ProviderRegistry, echoProvider *echo.Provider) error {
		if err := reg.Register(context.Background(), echoProvider); err != nil {
			return fmt.Errorf("failed to register echo provider: %w", err)
		}

		return nil
	}); err != nil {
		log.Fatalf("Failed to register echo provider: %v", err)
	}

	if err := container.Invoke(func(reg domain.ProviderRegistry, openaiProvider *openai.Provider) error {
		if err := reg.Register(context.Background(), openaiProvider); err != nil {
			return fmt.Errorf("failed to register OpenAI provider: %w", err)
		}

		return nil
	}); err != nil {
		// Ignore ErrProviderNotConfigured as it's expected for optional providers
		if !errors.Is(err, ErrProviderNotConfigured) {
			log.Fatalf("Failed to register providers: %v", err)
		}
	}

	// Pricing and cost accounting
	if err := container.Provide(func() (domain.PricingRegistry, error) {
		pricing := domain.NewInMemoryPricingRegistry()
		if err := openai.RegisterPricing(context.Background(), pricing); err != nil {
			return nil, fmt.Errorf("failed to register OpenAI pricing: %w", err)
		}
		return pricing, nil
	}); err != nil {
		log.Fatalf("Failed to provide pricing registry: %v", err)
	}
	if err := container.Provide(func(pricing domain.PricingRegistry) domain.CostCalculator {
		return domain.NewStandardCostCalculator(pricing)
	}); err != nil {
		log.Fatalf("Failed to provide cost calculator: %v", err)
	}

	// Routing
	if err := container.Provide(func(reg domain.ProviderRegistry) domain.Router {
		return routing.NewRouter(reg)
	}); err != nil {
		log.Fatalf("Failed to provide router: %v", err)
	}

	// Response cache
	if err := container.Provide(cache.New); err != nil {
		log.Fatalf("Failed to provide cache adapter: %v", err)
	}

	// Debate Service
	if err := container.Provide(func(
		debateCfg debate.Config,
		cacheCfg cache.Config,
		reg domain.ProviderRegistry,
		router domain.Router,
		adapter domain.CacheAdapter,
		costs domain.CostCalculator,
		events domain.EventPublisher,
	) (*debate.Service, error) {
		return debate.NewService(debateCfg, cacheCfg, reg, router, adapter, costs, events)
	}); err != nil {
		log.Fatalf("Failed to provide debate service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(service *debate.Service) *httpserver.Handler {
		return httpserver.NewHandler(service)
	}); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(httpserver.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
