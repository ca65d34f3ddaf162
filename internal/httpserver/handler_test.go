package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/quorum/internal/domain"
	"github.com/davidbz/quorum/internal/httpserver"
)

// mockRunner is a mock DebateRunner for testing.
type mockRunner struct {
	result *domain.ConsensusResult
	err    error

	gotQuery string
}

func (m *mockRunner) Run(_ context.Context, query string) (*domain.ConsensusResult, error) {
	m.gotQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func debateResult() *domain.ConsensusResult {
	return &domain.ConsensusResult{
		Answer: "The answer is 8.",
		Models: []string{"alpha", "beta"},
		Metadata: domain.ResultMetadata{
			TotalTokens:     42,
			Rounds:          2,
			ConsensusMethod: "majority",
		},
		DebateMetadata: domain.DebateMetadata{
			QueryType:        domain.QueryFactual,
			ConsensusReached: true,
			ConsensusRound:   2,
		},
	}
}

func TestHandleDebate_Success(t *testing.T) {
	runner := &mockRunner{result: debateResult()}
	handler := httpserver.NewHandler(runner)

	req := httptest.NewRequest(http.MethodPost, "/v1/debate",
		strings.NewReader(`{"query": "What is 4+4?"}`))
	rec := httptest.NewRecorder()

	handler.HandleDebate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "What is 4+4?", runner.gotQuery)

	var result domain.ConsensusResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, "The answer is 8.", result.Answer)
	require.True(t, result.DebateMetadata.ConsensusReached)
	require.Equal(t, 2, result.Metadata.Rounds)
}

func TestHandleDebate_MethodNotAllowed(t *testing.T) {
	handler := httpserver.NewHandler(&mockRunner{result: debateResult()})

	req := httptest.NewRequest(http.MethodGet, "/v1/debate", nil)
	rec := httptest.NewRecorder()

	handler.HandleDebate(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleDebate_InvalidBody(t *testing.T) {
	handler := httpserver.NewHandler(&mockRunner{result: debateResult()})

	req := httptest.NewRequest(http.MethodPost, "/v1/debate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.HandleDebate(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid request body")
}

func TestHandleDebate_EmptyQuery(t *testing.T) {
	handler := httpserver.NewHandler(&mockRunner{result: debateResult()})

	req := httptest.NewRequest(http.MethodPost, "/v1/debate", strings.NewReader(`{"query": "  "}`))
	rec := httptest.NewRecorder()

	handler.HandleDebate(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "query is required")
}

func TestHandleDebate_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "validation error",
			err:  &domain.ValidationError{Field: "models", Reason: "at least 2 models are required"},
			want: http.StatusBadRequest,
		},
		{
			name: "consensus error",
			err:  &domain.ConsensusError{Method: "unanimous", Reason: "no consensus after 3 rounds"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "provider error",
			err:  &domain.ProviderError{Provider: "openai", Model: "gpt-4o", Round: 2, Err: errors.New("timeout")},
			want: http.StatusBadGateway,
		},
		{
			name: "unclassified error",
			err:  errors.New("boom"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := httpserver.NewHandler(&mockRunner{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/v1/debate",
				strings.NewReader(`{"query": "q"}`))
			rec := httptest.NewRecorder()

			handler.HandleDebate(rec, req)

			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	handler := httpserver.NewHandler(&mockRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
}
