package debate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/davidbz/quorum/internal/domain"
)

// agreementMarkers are phrases that signal agreement with another model's
// response when followed by that model's identifier.
var agreementMarkers = []string{
	"agree with",
	"agrees with",
	"i agree",
	"concur with",
	"in agreement with",
	"aligns with",
	"consistent with",
	"same conclusion as",
	"correctly stated by",
}

// disagreementMarkers are the corresponding phrases for disagreement.
var disagreementMarkers = []string{
	"disagree with",
	"disagrees with",
	"i disagree",
	"differ from",
	"differs from",
	"contrary to",
	"at odds with",
	"dispute",
	"incorrectly stated by",
}

// explanationWindow is the size of the context excerpt recorded on an edge.
const explanationWindow = 150

// confidencePattern matches a stated confidence value such as
// "Confidence: 0.85".
var confidencePattern = regexp.MustCompile(`(?i)confidence[:\s]+([0-9]*\.?[0-9]+)`)

// HeuristicAnalyzer is the default ResponseAnalyzer. It scans free-form
// text for agreement phrases and confidence statements. The patterns are
// best-effort; they trade precision for zero model cost.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer creates the default analyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// ExtractAgreement derives agreement edges from fromModel's text against
// each response of the previous round.
func (a *HeuristicAnalyzer) ExtractAgreement(
	fromModel, text string,
	previous []domain.ModelResponse,
	labels map[string]string,
) []domain.AgreementEdge {
	lower := strings.ToLower(text)

	var edges []domain.AgreementEdge
	for _, prev := range previous {
		if prev.Model == fromModel {
			continue
		}

		label := labels[prev.Model]
		if label == "" {
			label = prev.Model
		}
		identifier := strings.ToLower(label)

		agreeAt := findMarkerBeforeIdentifier(lower, agreementMarkers, identifier)
		disagreeAt := findMarkerBeforeIdentifier(lower, disagreementMarkers, identifier)

		if agreeAt < 0 && disagreeAt < 0 {
			continue
		}

		agrees := agreeAt >= 0
		at := agreeAt
		if !agrees {
			at = disagreeAt
		}

		edges = append(edges, domain.AgreementEdge{
			FromModel:   fromModel,
			ToModel:     prev.Model,
			Agrees:      agrees,
			Explanation: excerpt(text, at, explanationWindow),
		})
	}

	return edges
}

// ExtractConfidence parses a stated confidence from text, clamped to
// [0,1]. Returns fallback when none is present.
func (a *HeuristicAnalyzer) ExtractConfidence(text string, fallback float64) float64 {
	match := confidencePattern.FindStringSubmatch(text)
	if match == nil {
		return fallback
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return fallback
	}

	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// findMarkerBeforeIdentifier returns the position of the first marker that
// is eventually followed by the identifier, or -1. Both inputs must be
// lower-cased by the caller. Occurrences preceded by "dis" are skipped so
// that "disagree with" never satisfies "agree with".
func findMarkerBeforeIdentifier(lower string, markers []string, identifier string) int {
	for _, marker := range markers {
		offset := 0
		for {
			at := strings.Index(lower[offset:], marker)
			if at < 0 {
				break
			}
			at += offset
			offset = at + len(marker)

			if at >= 3 && lower[at-3:at] == "dis" {
				continue
			}

			if strings.Contains(lower[at+len(marker):], identifier) {
				return at
			}
		}
	}
	return -1
}

// excerpt returns a window of text centered on pos.
func excerpt(text string, pos, window int) string {
	start := pos - window/2
	if start < 0 {
		start = 0
	}

	end := start + window
	if end > len(text) {
		end = len(text)
	}

	return strings.TrimSpace(text[start:end])
}

// AggregateAgreement computes a round's agreement level as the fraction of
// agreeing edges. With no edges the level defaults to 0.5 (no signal).
func AggregateAgreement(edges []domain.AgreementEdge) float64 {
	if len(edges) == 0 {
		return 0.5
	}

	agreeing := 0
	for _, edge := range edges {
		if edge.Agrees {
			agreeing++
		}
	}

	return float64(agreeing) / float64(len(edges))
}

// trendThreshold is the delta below which consecutive agreement levels are
// considered unchanged.
const trendThreshold = 0.05

// ComputeTrend summarizes the direction of per-round agreement levels.
// With fewer than two data points the trend is stable.
func ComputeTrend(levels []float64) domain.AgreementTrend {
	if len(levels) < 2 {
		return domain.TrendStable
	}

	allUp, allDown, allFlat := true, true, true
	for i := 1; i < len(levels); i++ {
		delta := levels[i] - levels[i-1]

		if delta <= trendThreshold {
			allUp = false
		}
		if delta >= -trendThreshold {
			allDown = false
		}
		if delta > trendThreshold || delta < -trendThreshold {
			allFlat = false
		}
	}

	switch {
	case allUp:
		return domain.TrendIncreasing
	case allDown:
		return domain.TrendDecreasing
	case allFlat:
		return domain.TrendStable
	default:
		return domain.TrendFluctuating
	}
}
