package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/davidbz/quorum/internal/domain"
	"github.com/davidbz/quorum/internal/observability"
)

// DebateRunner executes a debate for a query.
type DebateRunner interface {
	Run(ctx context.Context, query string) (*domain.ConsensusResult, error)
}

// DebateRequest is the body of POST /v1/debate.
type DebateRequest struct {
	Query string `json:"query"`
}

// Handler handles HTTP requests.
type Handler struct {
	debates DebateRunner
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(debates DebateRunner) *Handler {
	return &Handler{
		debates: debates,
	}
}

// HandleDebate processes debate requests.
func (h *Handler) HandleDebate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Early validation.
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse request.
	var req DebateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	logger := observability.FromContext(ctx)
	logger.Info("debate request received",
		observability.Int("query_length", len(req.Query)),
	)

	result, execErr := h.debates.Run(ctx, req.Query)
	if execErr != nil {
		logger.Error("debate failed", observability.Error(execErr))
		http.Error(w, execErr.Error(), statusFor(execErr))
		return
	}

	logger.Info("debate succeeded",
		observability.Int("rounds", result.Metadata.Rounds),
		observability.Bool("consensus_reached", result.DebateMetadata.ConsensusReached),
		observability.Int("tokens", result.Metadata.TotalTokens),
		observability.Float64("cost", result.Metadata.TotalCost),
	)

	w.Header().Set("Content-Type", "application/json")
	encodeErr := json.NewEncoder(w).Encode(result)
	if encodeErr != nil {
		logger.Error("failed to encode response", observability.Error(encodeErr))
		http.Error(w, fmt.Sprintf("failed to encode response: %v", encodeErr), http.StatusInternalServerError)
		return
	}
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	var consensusErr *domain.ConsensusError
	if errors.As(err, &consensusErr) {
		return http.StatusUnprocessableEntity
	}

	var providerErr *domain.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}
