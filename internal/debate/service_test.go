package debate_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/quorum/internal/cache"
	"github.com/davidbz/quorum/internal/debate"
	"github.com/davidbz/quorum/internal/domain"
	"github.com/davidbz/quorum/internal/provider/echo"
	"github.com/davidbz/quorum/internal/provider/registry"
	"github.com/davidbz/quorum/internal/routing"
)

func baseConfig() debate.Config {
	return debate.Config{
		Models:                []string{"alpha", "beta"},
		ConsensusMethod:       debate.MethodMajority,
		MaxRounds:             3,
		MinRounds:             1,
		UseSpecializedPrompts: true,
		RevealModelIdentities: true,
	}
}

func newTestService(
	t *testing.T,
	cfg debate.Config,
	cacheCfg cache.Config,
	adapter domain.CacheAdapter,
	provider domain.Provider,
	opts ...debate.Option,
) *debate.Service {
	t.Helper()

	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), provider))

	costs := domain.NewStandardCostCalculator(domain.NewDefaultPricingRegistry())

	svc, err := debate.NewService(cfg, cacheCfg, reg, routing.NewRouter(reg), adapter, costs, nil, opts...)
	require.NoError(t, err)
	return svc
}

func TestNewService_Validation(t *testing.T) {
	reg := registry.NewRegistry()
	router := routing.NewRouter(reg)
	costs := domain.NewStandardCostCalculator(domain.NewDefaultPricingRegistry())

	build := func(mutate func(*debate.Config)) error {
		cfg := baseConfig()
		mutate(&cfg)
		_, err := debate.NewService(cfg, cache.Config{}, reg, router, nil, costs, nil)
		return err
	}

	t.Run("fewer than two models", func(t *testing.T) {
		err := build(func(cfg *debate.Config) { cfg.Models = []string{"alpha"} })

		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, "models", validationErr.Field)
	})

	t.Run("min rounds below one", func(t *testing.T) {
		err := build(func(cfg *debate.Config) { cfg.MinRounds = 0 })

		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, "minRounds", validationErr.Field)
	})

	t.Run("max rounds below min rounds", func(t *testing.T) {
		err := build(func(cfg *debate.Config) { cfg.MinRounds = 3; cfg.MaxRounds = 2 })

		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, "maxRounds", validationErr.Field)
	})

	t.Run("unknown consensus method", func(t *testing.T) {
		err := build(func(cfg *debate.Config) { cfg.ConsensusMethod = "plurality" })

		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, "consensusMethod", validationErr.Field)
	})
}

func TestService_ConsensusFirstRound(t *testing.T) {
	provider := echo.NewScripted([]string{"alpha", "beta"}, func(_ *domain.CompletionRequest) string {
		return "The answer is 8."
	})
	svc := newTestService(t, baseConfig(), cache.Config{}, nil, provider)

	result, err := svc.Run(context.Background(), "What is 4+4?")
	require.NoError(t, err)

	require.Equal(t, "The answer is 8.", result.Answer)
	require.True(t, result.DebateMetadata.ConsensusReached)
	require.Equal(t, 1, result.DebateMetadata.ConsensusRound)
	require.Equal(t, 1, result.Metadata.Rounds)
	require.Equal(t, domain.QueryFactual, result.DebateMetadata.QueryType)
	require.Equal(t, []string{"alpha", "beta"}, result.Models)
	require.Positive(t, result.Metadata.TotalTokens)
	require.Nil(t, result.Metadata.CacheStats, "no cache stats when caching is disabled")
	require.InDelta(t, 0.9, result.Metadata.ConfidenceScores["alpha"], 1e-9)
	require.InDelta(t, 0.9, result.Metadata.ConfidenceScores["beta"], 1e-9)
}

func TestService_MinRoundsDelaysConsensus(t *testing.T) {
	provider := echo.NewScripted([]string{"alpha", "beta"}, func(_ *domain.CompletionRequest) string {
		return "The answer is 8."
	})

	cfg := baseConfig()
	cfg.MinRounds = 2

	allContainEight := func(responses []domain.ModelResponse) bool {
		for _, resp := range responses {
			if !strings.Contains(resp.Text, "8") {
				return false
			}
		}
		return true
	}

	svc := newTestService(t, cfg, cache.Config{}, nil, provider,
		debate.WithConsensusChecker(allContainEight))

	result, err := svc.Run(context.Background(), "What is 4+4?")
	require.NoError(t, err)

	require.True(t, result.DebateMetadata.ConsensusReached)
	require.Equal(t, 2, result.DebateMetadata.ConsensusRound,
		"consensus in round 1 must be held until min rounds have run")
	require.Equal(t, 2, result.Metadata.Rounds)
	require.Equal(t, "The answer is 8.", result.Answer,
		"custom checker answers with the first response")

	// Agreement is only measurable from round 2 on.
	require.Len(t, result.DebateMetadata.AgreementAnalysis.ByRound, 1)
	require.Equal(t, 2, result.DebateMetadata.AgreementAnalysis.ByRound[0].Round)
	require.Equal(t, domain.TrendStable, result.DebateMetadata.AgreementAnalysis.Trend)
}

func TestService_NoConsensusForcesAnswer(t *testing.T) {
	provider := echo.NewScripted([]string{"alpha", "beta"}, func(req *domain.CompletionRequest) string {
		if req.Model == "alpha" {
			return "Answer A"
		}
		return "Answer B"
	})

	cfg := baseConfig()
	cfg.ConsensusMethod = debate.MethodUnanimous
	cfg.MaxRounds = 2

	svc := newTestService(t, cfg, cache.Config{}, nil, provider)

	result, err := svc.Run(context.Background(), "Pick a letter")
	require.NoError(t, err)

	require.False(t, result.DebateMetadata.ConsensusReached)
	require.Zero(t, result.DebateMetadata.ConsensusRound)
	require.Equal(t, 2, result.Metadata.Rounds)
	require.Equal(t, "Answer A", result.Answer, "top-voted answer is forced after the final round")
}

func TestService_RequireConsensus(t *testing.T) {
	provider := echo.NewScripted([]string{"alpha", "beta"}, func(req *domain.CompletionRequest) string {
		return "Answer " + req.Model
	})

	cfg := baseConfig()
	cfg.ConsensusMethod = debate.MethodUnanimous
	cfg.MaxRounds = 2
	cfg.RequireConsensus = true

	svc := newTestService(t, cfg, cache.Config{}, nil, provider)

	_, err := svc.Run(context.Background(), "Pick a letter")

	var consensusErr *domain.ConsensusError
	require.ErrorAs(t, err, &consensusErr)
	require.Equal(t, debate.MethodUnanimous, consensusErr.Method)
}

func TestService_FinalRoundConfidenceExtracted(t *testing.T) {
	provider := echo.NewScripted([]string{"alpha", "beta"}, func(req *domain.CompletionRequest) string {
		if req.Model == "alpha" {
			return "Answer A\nConfidence: 0.6"
		}
		return "Answer B"
	})

	cfg := baseConfig()
	cfg.ConsensusMethod = debate.MethodUnanimous
	cfg.MaxRounds = 2

	svc := newTestService(t, cfg, cache.Config{}, nil, provider)

	result, err := svc.Run(context.Background(), "Pick a letter")
	require.NoError(t, err)

	require.InDelta(t, 0.6, result.Metadata.ConfidenceScores["alpha"], 1e-9,
		"stated confidence wins in the final round")
	require.InDelta(t, 0.8, result.Metadata.ConfidenceScores["beta"], 1e-9,
		"unstated confidence falls back to the final-round default")
}

func TestService_IncludeHistory(t *testing.T) {
	provider := echo.NewScripted([]string{"alpha", "beta"}, func(_ *domain.CompletionRequest) string {
		return "The answer is 8."
	})

	cfg := baseConfig()
	cfg.MinRounds = 2
	cfg.IncludeHistory = true

	svc := newTestService(t, cfg, cache.Config{}, nil, provider)

	result, err := svc.Run(context.Background(), "What is 4+4?")
	require.NoError(t, err)

	require.Len(t, result.History, 2)
	for i, round := range result.History {
		require.Equal(t, i+1, round.Index)
		require.Len(t, round.Responses, 2)
		require.Equal(t, "alpha", round.Responses[0].Model, "responses keep model-list order")
		require.Equal(t, "beta", round.Responses[1].Model)
	}
	require.Len(t, result.Enhanced, 2)
}

func TestService_CacheAcrossRuns(t *testing.T) {
	provider := echo.NewScripted([]string{"alpha", "beta"}, func(_ *domain.CompletionRequest) string {
		return "The answer is 8."
	})

	cfg := baseConfig()
	cfg.MaxRounds = 1

	cacheCfg := cache.Config{Enabled: true, Adapter: cache.AdapterMemory, TTLSeconds: 300}
	adapter := cache.NewMemoryAdapter(0)
	defer adapter.Close()

	svc := newTestService(t, cfg, cacheCfg, adapter, provider)
	ctx := context.Background()

	first, err := svc.Run(ctx, "What is 4+4?")
	require.NoError(t, err)
	require.NotNil(t, first.Metadata.CacheStats)
	require.Equal(t, int64(0), first.Metadata.CacheStats.Hits)
	require.Equal(t, int64(2), first.Metadata.CacheStats.Misses)

	second, err := svc.Run(ctx, "What is 4+4?")
	require.NoError(t, err)
	require.Equal(t, first.Answer, second.Answer)
	require.NotNil(t, second.Metadata.CacheStats)
	require.Equal(t, int64(2), second.Metadata.CacheStats.Hits, "identical rerun is served from cache")
	require.Equal(t, int64(2), second.Metadata.CacheStats.Misses)
}

// failingProvider errors for one model and answers for the rest.
type failingProvider struct {
	failModel string
}

func (p *failingProvider) Complete(_ context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req.Model == p.failModel {
		return nil, &domain.ProviderError{
			Provider:   "failing",
			Model:      req.Model,
			StatusCode: 500,
			Err:        errors.New("upstream exploded"),
		}
	}
	return &domain.CompletionResponse{Model: req.Model, Content: "fine"}, nil
}

func (p *failingProvider) Name() string { return "failing" }

func (p *failingProvider) IsModelSupported(_ context.Context, _ string) bool { return true }

func (p *failingProvider) SupportedModels(_ context.Context) []string {
	return []string{"alpha", "beta"}
}

func TestService_ProviderFailureAbortsDebate(t *testing.T) {
	svc := newTestService(t, baseConfig(), cache.Config{}, nil, &failingProvider{failModel: "beta"})

	result, err := svc.Run(context.Background(), "What is 4+4?")
	require.Nil(t, result, "a failed round yields no partial result")

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, "beta", provErr.Model)
	require.Equal(t, 1, provErr.Round)
	require.Equal(t, 500, provErr.StatusCode)
}

func TestService_UnroutableModel(t *testing.T) {
	provider := echo.NewScripted([]string{"alpha"}, func(_ *domain.CompletionRequest) string {
		return "x"
	})

	cfg := baseConfig()
	cfg.Models = []string{"alpha", "unrouted"}

	svc := newTestService(t, cfg, cache.Config{}, nil, provider)

	_, err := svc.Run(context.Background(), "What is 4+4?")

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Reason, "unrouted")
}
