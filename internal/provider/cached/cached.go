// Package cached decorates any domain.Provider with response memoization.
// Every call consults the configured cache adapter before the real provider
// is invoked; on a hit the provider is never called. Cache failures are
// logged and never block the provider call (fail-open).
package cached

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/davidbz/quorum/internal/cache"
	"github.com/davidbz/quorum/internal/domain"
	"github.com/davidbz/quorum/internal/observability"
)

// StatsRecorder accumulates hit/miss/time-saved accounting. A single
// recorder may be shared across decorators so a debate sees one set of
// numbers regardless of how many providers it fans out to.
type StatsRecorder struct {
	hits      atomic.Int64
	misses    atomic.Int64
	savedMs   atomic.Int64
	liveMs    atomic.Int64
	liveCalls atomic.Int64
}

// NewStatsRecorder creates an empty recorder.
func NewStatsRecorder() *StatsRecorder {
	return &StatsRecorder{}
}

// Snapshot returns the current counters.
func (s *StatsRecorder) Snapshot() domain.CacheStats {
	return domain.CacheStats{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		TimeSavedMs: s.savedMs.Load(),
	}
}

// recordLive tracks the duration of a real provider call; the mean live
// latency is the estimate credited on later hits.
func (s *StatsRecorder) recordLive(d time.Duration) {
	s.liveMs.Add(d.Milliseconds())
	s.liveCalls.Add(1)
}

func (s *StatsRecorder) recordHit() {
	s.hits.Add(1)
	if calls := s.liveCalls.Load(); calls > 0 {
		s.savedMs.Add(s.liveMs.Load() / calls)
	}
}

// Provider wraps an underlying provider with cache lookups.
type Provider struct {
	inner   domain.Provider
	adapter domain.CacheAdapter
	ttl     time.Duration
	bypass  bool
	bust    bool
	stats   *StatsRecorder
}

// Wrap decorates inner with the given cache adapter. A nil adapter yields
// a pass-through decorator that still counts misses. stats may be shared;
// nil allocates a private recorder.
func Wrap(inner domain.Provider, adapter domain.CacheAdapter, cfg cache.Config, stats *StatsRecorder) *Provider {
	if stats == nil {
		stats = NewStatsRecorder()
	}

	return &Provider{
		inner:   inner,
		adapter: adapter,
		ttl:     cfg.TTL(),
		bypass:  cfg.Bypass,
		bust:    cfg.Bust,
		stats:   stats,
	}
}

// Complete consults the cache, then the underlying provider on a miss.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if p.adapter == nil || p.bypass {
		// No lookup and no write; counters still record the live call
		// as a miss so telemetry stays consistent.
		p.stats.misses.Add(1)
		return p.callInner(ctx, req)
	}

	key := p.keyFor(req)

	if p.bust {
		p.stats.misses.Add(1)
		resp, err := p.callInner(ctx, req)
		if err != nil {
			return nil, err
		}
		p.store(ctx, key, resp)
		return resp, nil
	}

	if cached, ok := p.lookup(ctx, key); ok {
		p.stats.recordHit()
		observability.FromContext(ctx).Debug("cache hit",
			observability.String("model", req.Model))
		return cached, nil
	}

	p.stats.misses.Add(1)
	resp, err := p.callInner(ctx, req)
	if err != nil {
		return nil, err
	}

	p.store(ctx, key, resp)
	return resp, nil
}

// Name returns the underlying provider's identifier.
func (p *Provider) Name() string {
	return p.inner.Name()
}

// IsModelSupported delegates to the underlying provider.
func (p *Provider) IsModelSupported(ctx context.Context, model string) bool {
	return p.inner.IsModelSupported(ctx, model)
}

// SupportedModels delegates to the underlying provider.
func (p *Provider) SupportedModels(ctx context.Context) []string {
	return p.inner.SupportedModels(ctx)
}

// Stats returns the decorator's cache accounting.
func (p *Provider) Stats() domain.CacheStats {
	return p.stats.Snapshot()
}

func (p *Provider) callInner(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	start := time.Now()
	resp, err := p.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	p.stats.recordLive(time.Since(start))
	return resp, nil
}

func (p *Provider) lookup(ctx context.Context, key string) (*domain.CompletionResponse, bool) {
	data, ok := p.adapter.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var resp domain.CompletionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		observability.FromContext(ctx).Warn("cached response unmarshal failed, treating as miss",
			observability.Error(err))
		_ = p.adapter.Delete(ctx, key)
		return nil, false
	}

	return &resp, true
}

func (p *Provider) store(ctx context.Context, key string, resp *domain.CompletionResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		observability.FromContext(ctx).Warn("response marshal failed, skipping cache write",
			observability.Error(err))
		return
	}

	if err := p.adapter.Set(ctx, key, data, p.ttl); err != nil {
		observability.FromContext(ctx).Warn("cache write failed",
			observability.Error(err))
	}
}

// keyFor derives the cache key from the provider name plus the request's
// model, messages, and sampling options.
func (p *Provider) keyFor(req *domain.CompletionRequest) string {
	var system, prompt []string
	for _, msg := range req.Messages {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}
		prompt = append(prompt, msg.Role+": "+msg.Content)
	}

	return cache.DeriveKey(cache.KeyRequest{
		Provider:     p.inner.Name(),
		Model:        req.Model,
		Prompt:       strings.Join(prompt, "\n"),
		SystemPrompt: strings.Join(system, "\n"),
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
}
