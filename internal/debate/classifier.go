package debate

import (
	"regexp"
	"strings"

	"github.com/davidbz/quorum/internal/domain"
)

// arithmeticPattern matches runs of arithmetic expression characters.
var arithmeticPattern = regexp.MustCompile(`[\d+\-*/^%().=\s]+`)

// abstractKeywords are phrases that mark a query as open-ended or
// philosophical wherever they appear.
var abstractKeywords = []string{
	"meaning of life",
	"consciousness",
	"free will",
	"morality",
	"moral",
	"ethics",
	"ethical",
	"philosophy",
	"philosophical",
	"existential",
	"existence of",
	"purpose of life",
	"metaphysic",
	"justice",
	"virtue",
	"beauty",
	"the soul",
}

// factualLeadIns are opening phrases that mark a query as factual.
var factualLeadIns = []string{
	"what is",
	"what are",
	"who is",
	"who was",
	"when did",
	"when was",
	"where is",
	"where was",
	"how many",
	"how much",
	"how far",
	"how old",
	"calculate",
	"compute",
	"solve",
	"convert",
}

// whatIsAbstractOverrides reclassify a "what is" lead-in as abstract when
// the query is really asking for interpretation, not a lookup.
var whatIsAbstractOverrides = []string{
	"meaning",
	"purpose",
	"philosophy",
}

// ClassifyQuery tags a query as factual, abstract, or unknown using ordered
// heuristics. This is a best-effort text classifier used only to pick a
// prompt template.
func ClassifyQuery(query string) domain.QueryType {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return domain.QueryUnknown
	}

	lower := strings.ToLower(trimmed)

	// Queries dominated by arithmetic are factual regardless of wording.
	if arithmeticRatio(trimmed) > 0.5 {
		return domain.QueryFactual
	}

	for _, keyword := range abstractKeywords {
		if strings.Contains(lower, keyword) {
			return domain.QueryAbstract
		}
	}

	for _, leadIn := range factualLeadIns {
		if !strings.HasPrefix(lower, leadIn) {
			continue
		}

		if leadIn == "what is" {
			for _, override := range whatIsAbstractOverrides {
				if strings.Contains(lower, override) {
					return domain.QueryAbstract
				}
			}
		}

		return domain.QueryFactual
	}

	return domain.QueryUnknown
}

// arithmeticRatio reports the fraction of the query consumed by arithmetic
// expression characters.
func arithmeticRatio(query string) float64 {
	if query == "" {
		return 0
	}

	matched := 0
	for _, m := range arithmeticPattern.FindAllString(query, -1) {
		matched += len(m)
	}

	return float64(matched) / float64(len(query))
}
