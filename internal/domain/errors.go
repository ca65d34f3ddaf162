package domain

import "fmt"

// ValidationError reports invalid static configuration or input values.
// It is raised synchronously at construction; the debate never starts.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError reports a failed model call. It aborts the in-progress
// debate; there is no partial-result fallback and no automatic retry.
type ProviderError struct {
	Provider   string
	Model      string
	Round      int // 0 when outside a round
	StatusCode int // 0 when not HTTP-like
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s failed for model %s", e.Provider, e.Model)
	if e.Round > 0 {
		msg = fmt.Sprintf("%s in round %d", msg, e.Round)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ConsensusError reports a logical consensus failure, such as no consensus
// under a strict outcome requirement or too few responses for the chosen
// method. The default orchestrator forces a voter-computed answer instead
// of raising this.
type ConsensusError struct {
	Method string
	Reason string
}

// Error implements the error interface.
func (e *ConsensusError) Error() string {
	return fmt.Sprintf("consensus (%s): %s", e.Method, e.Reason)
}
