package echo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/quorum/internal/domain"
	"github.com/davidbz/quorum/internal/provider/echo"
)

func TestNewProvider(t *testing.T) {
	provider := echo.NewProvider()

	require.NotNil(t, provider)
	require.Equal(t, "echo", provider.Name())
	require.True(t, provider.IsModelSupported(context.Background(), "echo4"))
}

func TestComplete_Success(t *testing.T) {
	provider := echo.NewProvider()
	ctx := context.Background()

	req := &domain.CompletionRequest{
		Model: "echo4",
		Messages: []domain.Message{
			{Role: "user", Content: "Hello world"},
		},
	}

	resp, err := provider.Complete(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, "echo4", resp.Model)
	require.Equal(t, "echo", resp.Provider)
	require.Equal(t, "[user]: Hello world\n", resp.Content)
	require.Equal(t, 3, resp.Usage.PromptTokens)     // "[user]:" "Hello" "world" = 3 words
	require.Equal(t, 3, resp.Usage.CompletionTokens) // Same as input
	require.Equal(t, 6, resp.Usage.TotalTokens)
	require.NotEmpty(t, resp.ID)
}

func TestComplete_NilRequest(t *testing.T) {
	provider := echo.NewProvider()

	resp, err := provider.Complete(context.Background(), nil)

	require.Error(t, err)
	require.Nil(t, resp)
	require.Contains(t, err.Error(), "request cannot be nil")
}

func TestComplete_UnsupportedModel(t *testing.T) {
	provider := echo.NewProvider()

	req := &domain.CompletionRequest{
		Model: "gpt-4o",
		Messages: []domain.Message{
			{Role: "user", Content: "Hello"},
		},
	}

	resp, err := provider.Complete(context.Background(), req)

	require.Error(t, err)
	require.Nil(t, resp)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, "echo", provErr.Provider)
	require.Equal(t, "gpt-4o", provErr.Model)
}

func TestNewScripted(t *testing.T) {
	provider := echo.NewScripted([]string{"alpha", "beta"}, func(req *domain.CompletionRequest) string {
		return "scripted for " + req.Model
	})
	ctx := context.Background()

	require.True(t, provider.IsModelSupported(ctx, "alpha"))
	require.True(t, provider.IsModelSupported(ctx, "beta"))
	require.False(t, provider.IsModelSupported(ctx, "echo4"))
	require.ElementsMatch(t, []string{"alpha", "beta"}, provider.SupportedModels(ctx))

	resp, err := provider.Complete(ctx, &domain.CompletionRequest{
		Model: "alpha",
		Messages: []domain.Message{
			{Role: "user", Content: "anything"},
		},
	})

	require.NoError(t, err)
	require.Equal(t, "scripted for alpha", resp.Content)
	require.Positive(t, resp.Usage.TotalTokens)
}
