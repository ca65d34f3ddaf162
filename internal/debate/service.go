// Package debate orchestrates multi-round debates between independent
// models. Each round fans out one prompt per model concurrently, fans the
// responses back in by model-list order, extracts agreement signals, and
// applies the configured consensus method. Rounds are strictly sequential;
// round N+1 never starts before every response of round N is in.
package debate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/davidbz/quorum/internal/cache"
	"github.com/davidbz/quorum/internal/domain"
	"github.com/davidbz/quorum/internal/observability"
	"github.com/davidbz/quorum/internal/provider/cached"
)

const (
	// initialConfidence is assumed for rounds where no confidence is
	// solicited from the model.
	initialConfidence = 0.9

	// finalConfidenceFallback is used when the final round's response
	// states no parsable confidence.
	finalConfidenceFallback = 0.8
)

// Service runs debates. It is safe for concurrent use; each Run owns its
// own state.
type Service struct {
	cfg      Config
	cacheCfg cache.Config
	registry domain.ProviderRegistry
	router   domain.Router
	adapter  domain.CacheAdapter
	costs    domain.CostCalculator
	events   domain.EventPublisher
	analyzer domain.ResponseAnalyzer
	checker  Checker
	stats    *cached.StatsRecorder
}

// Option customizes a Service beyond its configuration.
type Option func(*Service)

// WithConsensusChecker installs a custom consensus predicate. It replaces
// the named method's reached decision; the winning answer then falls back
// to the round's first response.
func WithConsensusChecker(checker Checker) Option {
	return func(s *Service) {
		s.checker = checker
	}
}

// WithAnalyzer replaces the default heuristic response analyzer.
func WithAnalyzer(analyzer domain.ResponseAnalyzer) Option {
	return func(s *Service) {
		s.analyzer = analyzer
	}
}

// NewService validates the configuration and creates a debate service.
// Invalid configuration fails here, before any model is ever called.
func NewService(
	cfg Config,
	cacheCfg cache.Config,
	registry domain.ProviderRegistry,
	router domain.Router,
	adapter domain.CacheAdapter,
	costs domain.CostCalculator,
	events domain.EventPublisher,
	opts ...Option,
) (*Service, error) {
	if len(cfg.Models) < 2 {
		return nil, &domain.ValidationError{Field: "models", Reason: "at least 2 models are required"}
	}
	if cfg.MinRounds < 1 {
		return nil, &domain.ValidationError{Field: "minRounds", Reason: "must be at least 1"}
	}
	if cfg.MaxRounds < cfg.MinRounds {
		return nil, &domain.ValidationError{
			Field:  "maxRounds",
			Reason: fmt.Sprintf("must be at least minRounds (%d)", cfg.MinRounds),
		}
	}
	if !ValidMethod(cfg.ConsensusMethod) {
		return nil, &domain.ValidationError{
			Field:  "consensusMethod",
			Reason: fmt.Sprintf("unknown method %q", cfg.ConsensusMethod),
		}
	}

	s := &Service{
		cfg:      cfg,
		cacheCfg: cacheCfg,
		registry: registry,
		router:   router,
		adapter:  adapter,
		costs:    costs,
		events:   events,
		analyzer: NewHeuristicAnalyzer(),
		checker:  nil,
		stats:    cached.NewStatsRecorder(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Run executes a full debate for query and returns the consensus result.
// Any provider failure aborts the debate; there is no partial result.
func (s *Service) Run(ctx context.Context, query string) (*domain.ConsensusResult, error) {
	start := time.Now()

	state := &domain.DebateState{
		ID:        uuid.NewString(),
		Query:     query,
		QueryType: ClassifyQuery(query),
		StartedAt: start,
	}

	ctx = observability.WithDebateID(ctx, state.ID)
	logger := observability.FromContext(ctx)
	logger.Info("debate started",
		observability.String("query_type", string(state.QueryType)),
		observability.Int("models", len(s.cfg.Models)),
		observability.String("consensus_method", s.cfg.ConsensusMethod))

	s.publish(ctx, "debate_started", map[string]interface{}{
		"query_type": state.QueryType,
		"models":     s.cfg.Models,
	})

	providers, err := s.resolveProviders(ctx)
	if err != nil {
		return nil, err
	}

	labels := s.labels()

	var (
		lastResponses []domain.ModelResponse
		lastOutcome   domain.VoteOutcome
	)

	for round := 1; round <= s.cfg.MaxRounds; round++ {
		roundCtx := observability.WithRound(ctx, round)
		isFinal := round == s.cfg.MaxRounds

		var prompt string
		switch {
		case round == 1:
			prompt = BuildInitialPrompt(state.QueryType, query, s.cfg.UseSpecializedPrompts)
		case isFinal:
			prompt = BuildFinalPrompt(query, s.labeled(lastResponses, labels))
		default:
			prompt = BuildDebatePrompt(query, s.labeled(lastResponses, labels))
		}

		responses, roundErr := s.runRound(roundCtx, providers, round, prompt, isFinal)
		if roundErr != nil {
			s.publish(roundCtx, "debate_failed", map[string]interface{}{"round": round})
			return nil, roundErr
		}

		if round >= 2 {
			var edges []domain.AgreementEdge
			for _, resp := range responses {
				edges = append(edges,
					s.analyzer.ExtractAgreement(resp.Model, resp.Text, lastResponses, labels)...)
			}
			state.Agreement = append(state.Agreement, domain.RoundAgreement{
				Round:          round,
				AgreementLevel: AggregateAgreement(edges),
				Edges:          edges,
			})
		}

		state.History = append(state.History, domain.Round{Index: round, Responses: responses})
		state.CurrentRound = round
		lastResponses = responses

		lastOutcome = Vote(s.cfg.ConsensusMethod, responses)
		reached := lastOutcome.Reached
		if s.checker != nil {
			reached = s.checker(responses)
		}

		s.publish(roundCtx, "round_completed", map[string]interface{}{
			"round":   round,
			"reached": reached,
		})

		// Consensus is accepted only at or after the minimum round count.
		if reached && round >= s.cfg.MinRounds {
			state.ConsensusReached = true
			state.ConsensusRound = round
			break
		}
	}

	if !state.ConsensusReached && s.cfg.RequireConsensus {
		return nil, &domain.ConsensusError{
			Method: s.cfg.ConsensusMethod,
			Reason: fmt.Sprintf("no consensus after %d rounds", state.CurrentRound),
		}
	}

	result := s.buildResult(state, lastResponses, lastOutcome, time.Since(start))

	logger.Info("debate finished",
		observability.Bool("consensus_reached", state.ConsensusReached),
		observability.Int("rounds", state.CurrentRound),
		observability.Int64("processing_time_ms", result.Metadata.ProcessingTimeMs))

	s.publish(ctx, "debate_finished", map[string]interface{}{
		"consensus_reached": state.ConsensusReached,
		"rounds":            state.CurrentRound,
	})

	return result, nil
}

// runRound fans one prompt out to every model concurrently and collects
// the responses in model-list order.
func (s *Service) runRound(
	ctx context.Context,
	providers map[string]domain.Provider,
	round int,
	prompt string,
	isFinal bool,
) ([]domain.ModelResponse, error) {
	responses := make([]domain.ModelResponse, len(s.cfg.Models))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, model := range s.cfg.Models {
		i, model := i, model
		g.Go(func() error {
			modelCtx := observability.WithModel(groupCtx, model)

			req := &domain.CompletionRequest{
				Model: model,
				Messages: []domain.Message{
					{Role: "user", Content: prompt},
				},
				Temperature: s.cfg.Temperature,
				MaxTokens:   s.cfg.MaxTokens,
			}

			resp, err := providers[model].Complete(modelCtx, req)
			if err != nil {
				return wrapRoundError(providers[model].Name(), model, round, err)
			}

			confidence := initialConfidence
			if isFinal {
				confidence = s.analyzer.ExtractConfidence(resp.Content, finalConfidenceFallback)
			}

			usage := resp.Usage
			if cost, costErr := s.costs.Calculate(modelCtx, model, usage); costErr == nil {
				usage.Cost = cost
			}

			// Fan-in by original index keeps history ordering aligned
			// with the configured model list, not arrival order.
			responses[i] = domain.ModelResponse{
				Model:      model,
				Text:       resp.Content,
				Confidence: confidence,
				Usage:      usage,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return responses, nil
}

// resolveProviders maps each configured model to its cache-decorated
// provider. Providers shared by several models are wrapped once.
func (s *Service) resolveProviders(ctx context.Context) (map[string]domain.Provider, error) {
	providers := make(map[string]domain.Provider, len(s.cfg.Models))
	decorated := make(map[string]*cached.Provider)

	for _, model := range s.cfg.Models {
		name, err := s.router.Route(ctx, &domain.RouteRequest{Model: model})
		if err != nil {
			return nil, &domain.ValidationError{
				Field:  "models",
				Reason: fmt.Sprintf("no provider for model %s: %v", model, err),
			}
		}

		if dec, ok := decorated[name]; ok {
			providers[model] = dec
			continue
		}

		prov, err := s.registry.Get(ctx, name)
		if err != nil {
			return nil, &domain.ValidationError{
				Field:  "models",
				Reason: fmt.Sprintf("provider %s not registered: %v", name, err),
			}
		}

		var adapter domain.CacheAdapter
		if s.cacheCfg.Enabled {
			adapter = s.adapter
		}

		dec := cached.Wrap(prov, adapter, s.cacheCfg, s.stats)
		decorated[name] = dec
		providers[model] = dec
	}

	return providers, nil
}

// buildResult freezes the debate state into its terminal snapshot.
func (s *Service) buildResult(
	state *domain.DebateState,
	lastResponses []domain.ModelResponse,
	lastOutcome domain.VoteOutcome,
	elapsed time.Duration,
) *domain.ConsensusResult {
	// Without consensus the voter's computed answer is forced; a custom
	// checker falls back to the round's first response.
	answer := lastOutcome.Answer
	if s.checker != nil && len(lastResponses) > 0 {
		answer = lastResponses[0].Text
	}

	totalTokens := 0
	totalCost := 0.0
	for _, round := range state.History {
		for _, resp := range round.Responses {
			totalTokens += resp.Usage.TotalTokens
			totalCost += resp.Usage.Cost
		}
	}

	confidences := make(map[string]float64, len(lastResponses))
	for _, resp := range lastResponses {
		confidences[resp.Model] = resp.Confidence
	}

	byRound := make([]domain.RoundAgreement, len(state.Agreement))
	levels := make([]float64, len(state.Agreement))
	for i, agreement := range state.Agreement {
		byRound[i] = domain.RoundAgreement{
			Round:          agreement.Round,
			AgreementLevel: agreement.AgreementLevel,
		}
		levels[i] = agreement.AgreementLevel
	}

	metadata := domain.ResultMetadata{
		TotalTokens:      totalTokens,
		TotalCost:        totalCost,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Rounds:           state.CurrentRound,
		ConsensusMethod:  s.cfg.ConsensusMethod,
		ConfidenceScores: confidences,
		CachingEnabled:   s.cacheCfg.Enabled,
	}
	if s.cacheCfg.Enabled {
		stats := s.stats.Snapshot()
		metadata.CacheStats = &stats
	}

	result := &domain.ConsensusResult{
		Answer:   answer,
		Models:   append([]string(nil), s.cfg.Models...),
		Metadata: metadata,
		DebateMetadata: domain.DebateMetadata{
			QueryType:        state.QueryType,
			ConsensusReached: state.ConsensusReached,
			ConsensusRound:   state.ConsensusRound,
			AgreementAnalysis: domain.AgreementAnalysis{
				ByRound: byRound,
				Trend:   ComputeTrend(levels),
			},
		},
	}

	if s.cfg.IncludeHistory {
		result.History = state.History
		result.Enhanced = s.enhanceHistory(state)
	}

	return result
}

// enhanceHistory annotates each round with the agreement edges extracted
// from it.
func (s *Service) enhanceHistory(state *domain.DebateState) []domain.EnhancedRound {
	edgesByRound := make(map[int][]domain.AgreementEdge, len(state.Agreement))
	for _, agreement := range state.Agreement {
		edgesByRound[agreement.Round] = agreement.Edges
	}

	enhanced := make([]domain.EnhancedRound, len(state.History))
	for i, round := range state.History {
		enhanced[i] = domain.EnhancedRound{
			Round: round,
			Edges: edgesByRound[round.Index],
		}
	}
	return enhanced
}

// labels maps each model to the identifier other models see it under.
func (s *Service) labels() map[string]string {
	labels := make(map[string]string, len(s.cfg.Models))
	for i, model := range s.cfg.Models {
		if s.cfg.RevealModelIdentities {
			labels[model] = model
			continue
		}
		labels[model] = fmt.Sprintf("Model %d", i+1)
	}
	return labels
}

// labeled pairs responses with their presentation identifiers.
func (s *Service) labeled(responses []domain.ModelResponse, labels map[string]string) []LabeledResponse {
	out := make([]LabeledResponse, len(responses))
	for i, resp := range responses {
		label := labels[resp.Model]
		if label == "" {
			label = resp.Model
		}
		out[i] = LabeledResponse{Label: label, Text: resp.Text}
	}
	return out
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, data)
}

// wrapRoundError stamps provider failures with round context.
func wrapRoundError(providerName, model string, round int, err error) error {
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		if provErr.Round == 0 {
			provErr.Round = round
		}
		return provErr
	}

	return &domain.ProviderError{
		Provider: providerName,
		Model:    model,
		Round:    round,
		Err:      err,
	}
}
