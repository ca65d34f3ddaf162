package debate

import "github.com/davidbz/quorum/internal/domain"

// Consensus methods.
const (
	MethodMajority      = "majority"
	MethodSupermajority = "supermajority"
	MethodUnanimous     = "unanimous"
)

// supermajorityThreshold is inclusive: exactly 75% counts as reached.
const supermajorityThreshold = 0.75

// Checker is a custom consensus predicate over a round's responses. When
// configured it fully replaces the named method's reached decision.
type Checker func(responses []domain.ModelResponse) bool

// ValidMethod reports whether method names a known consensus rule.
func ValidMethod(method string) bool {
	switch method {
	case MethodMajority, MethodSupermajority, MethodUnanimous:
		return true
	default:
		return false
	}
}

// Vote applies a named consensus method to a round's responses. Responses
// are grouped by exact text equality; no trimming or normalization is
// applied. The returned answer is always the top-voted text, even when
// consensus is not reached. On a tie the answer is whichever tied text
// first reached the maximum count during the scan; callers must not rely
// on which one that is.
func Vote(method string, responses []domain.ModelResponse) domain.VoteOutcome {
	if len(responses) == 0 {
		return domain.VoteOutcome{Reached: false, Answer: ""}
	}

	counts := make(map[string]int, len(responses))
	top := ""
	topCount := 0
	for _, resp := range responses {
		counts[resp.Text]++
		if counts[resp.Text] > topCount {
			topCount = counts[resp.Text]
			top = resp.Text
		}
	}

	n := len(responses)
	reached := false
	switch method {
	case MethodMajority:
		reached = topCount*2 > n
	case MethodSupermajority:
		reached = float64(topCount) >= supermajorityThreshold*float64(n)
	case MethodUnanimous:
		reached = topCount == n
	}

	return domain.VoteOutcome{Reached: reached, Answer: top}
}
