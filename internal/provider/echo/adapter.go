// Package echo provides a deterministic provider that answers without any
// external API call. By default it echoes the request messages back; a
// scripted variant lets tests and local development drive multi-round
// debates with predictable replies.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/quorum/internal/domain"
	"github.com/davidbz/quorum/internal/observability"
)

const (
	providerName = "echo"
	modelName    = "echo4"
)

// ReplyFunc computes the scripted reply for a request.
type ReplyFunc func(req *domain.CompletionRequest) string

// Provider implements the domain.Provider interface for echo testing.
type Provider struct {
	name   string
	models map[string]bool
	reply  ReplyFunc
}

// NewProvider creates an echo provider that mirrors request messages.
func NewProvider() *Provider {
	return &Provider{
		name:   providerName,
		models: map[string]bool{modelName: true},
		reply:  nil,
	}
}

// NewScripted creates an echo provider whose replies come from fn and which
// claims support for the given models.
func NewScripted(models []string, fn ReplyFunc) *Provider {
	set := make(map[string]bool, len(models))
	for _, model := range models {
		set[model] = true
	}

	return &Provider{
		name:   providerName,
		models: set,
		reply:  fn,
	}
}

// Complete returns the echoed or scripted response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if !p.models[req.Model] {
		return nil, &domain.ProviderError{
			Provider: p.name,
			Model:    req.Model,
			Err:      fmt.Errorf("model %s is not supported by echo provider", req.Model),
		}
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	content := p.buildContent(req)

	promptTokens := countTokens(content)
	completionTokens := promptTokens // Echo returns same size

	return &domain.CompletionResponse{
		ID:       fmt.Sprintf("echo-%d", time.Now().UnixNano()),
		Model:    req.Model,
		Provider: p.name,
		Content:  content,
		Usage: domain.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishTime: time.Now(),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return p.models[model]
}

// SupportedModels returns a list of all models this provider supports.
func (p *Provider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(p.models))
	for model := range p.models {
		models = append(models, model)
	}
	return models
}

func (p *Provider) buildContent(req *domain.CompletionRequest) string {
	if p.reply != nil {
		return p.reply(req)
	}

	var builder strings.Builder
	for _, msg := range req.Messages {
		builder.WriteString(fmt.Sprintf("[%s]: %s\n", msg.Role, msg.Content))
	}
	return builder.String()
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
