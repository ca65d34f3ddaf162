package domain

import "time"

// QueryType classifies a debate query.
type QueryType string

const (
	// QueryFactual marks queries with a verifiable answer (math, lookups).
	QueryFactual QueryType = "factual"

	// QueryAbstract marks open-ended or philosophical queries.
	QueryAbstract QueryType = "abstract"

	// QueryUnknown marks queries the classifier could not place.
	QueryUnknown QueryType = "unknown"
)

// CompletionRequest represents a unified LLM request.
type CompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []Message         `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// CompletionResponse represents a unified LLM response.
type CompletionResponse struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Provider   string    `json:"provider"`
	Content    string    `json:"content"`
	Usage      Usage     `json:"usage"`
	FinishTime time.Time `json:"finish_time"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost,omitempty"`
}

// ModelResponse is one model's contribution to a debate round.
// It is never mutated after creation.
type ModelResponse struct {
	Model      string  `json:"model"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Usage      Usage   `json:"usage"`
}

// Round is one synchronized batch of per-model responses.
// Responses are ordered by the configured model list, not by arrival.
type Round struct {
	Index     int             `json:"index"` // 1-based
	Responses []ModelResponse `json:"responses"`
}

// AgreementEdge records that one model's response in round N agrees or
// disagrees with another model's response in round N-1. Edges are derived
// by text heuristics and are not authoritative.
type AgreementEdge struct {
	FromModel   string `json:"from_model"`
	ToModel     string `json:"to_model"`
	Agrees      bool   `json:"agrees"`
	Explanation string `json:"explanation,omitempty"`
}

// RoundAgreement is the aggregate agreement signal for a single round.
type RoundAgreement struct {
	Round          int             `json:"round"`
	AgreementLevel float64         `json:"agreement_level"`
	Edges          []AgreementEdge `json:"edges,omitempty"`
}

// AgreementTrend summarizes how agreement evolved across rounds.
type AgreementTrend string

const (
	TrendIncreasing  AgreementTrend = "increasing"
	TrendDecreasing  AgreementTrend = "decreasing"
	TrendStable      AgreementTrend = "stable"
	TrendFluctuating AgreementTrend = "fluctuating"
)

// VoteOutcome is the result of applying a consensus method to one round.
type VoteOutcome struct {
	Reached bool   `json:"reached"`
	Answer  string `json:"answer"`
}

// DebateState owns the evolving history of a debate. It is mutated only by
// the orchestrator and frozen into a ConsensusResult on termination.
type DebateState struct {
	ID               string
	Query            string
	QueryType        QueryType
	History          []Round
	CurrentRound     int
	ConsensusReached bool
	ConsensusRound   int // 0 until consensus is accepted
	Agreement        []RoundAgreement
	StartedAt        time.Time
}

// ConsensusResult is the terminal snapshot of a completed debate.
type ConsensusResult struct {
	Answer         string          `json:"answer"`
	Models         []string        `json:"models"`
	Metadata       ResultMetadata  `json:"metadata"`
	DebateMetadata DebateMetadata  `json:"debate_metadata"`
	History        []Round         `json:"history,omitempty"`
	Enhanced       []EnhancedRound `json:"enhanced_history,omitempty"`
}

// ResultMetadata carries aggregate accounting for a debate.
type ResultMetadata struct {
	TotalTokens      int                `json:"total_tokens"`
	TotalCost        float64            `json:"total_cost,omitempty"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
	Rounds           int                `json:"rounds"`
	ConsensusMethod  string             `json:"consensus_method"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	CachingEnabled   bool               `json:"caching_enabled"`
	CacheStats       *CacheStats        `json:"cache_stats,omitempty"`
}

// CacheStats reports decorator-level cache accounting.
type CacheStats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	TimeSavedMs int64 `json:"time_saved_ms"`
}

// DebateMetadata carries debate-specific outcome details.
type DebateMetadata struct {
	QueryType         QueryType         `json:"query_type"`
	ConsensusReached  bool              `json:"consensus_reached"`
	ConsensusRound    int               `json:"consensus_round,omitempty"`
	AgreementAnalysis AgreementAnalysis `json:"agreement_analysis"`
}

// AgreementAnalysis summarizes per-round agreement levels and their trend.
type AgreementAnalysis struct {
	ByRound []RoundAgreement `json:"by_round"`
	Trend   AgreementTrend   `json:"trend"`
}

// EnhancedRound is a round annotated with its extracted agreement edges.
type EnhancedRound struct {
	Round
	Edges []AgreementEdge `json:"edges,omitempty"`
}
