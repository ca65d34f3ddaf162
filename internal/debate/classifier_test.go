package debate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/quorum/internal/debate"
	"github.com/davidbz/quorum/internal/domain"
)

func TestClassifyQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.QueryType
	}{
		{"factual lead-in", "What is 4+4?", domain.QueryFactual},
		{"pure arithmetic", "12 + 7 = ?", domain.QueryFactual},
		{"counting question", "How many moons does Jupiter have?", domain.QueryFactual},
		{"who question", "Who was the first person on the moon?", domain.QueryFactual},
		{"calculation verb", "Calculate the area of a circle with radius 3", domain.QueryFactual},
		{"philosophical keyword", "What is the meaning of life?", domain.QueryAbstract},
		{"ethics keyword", "Is lying ever morally acceptable?", domain.QueryAbstract},
		{"what-is override", "What is the purpose of art?", domain.QueryAbstract},
		{"consciousness", "Can machines have consciousness?", domain.QueryAbstract},
		{"open ended", "Tell me a story about dragons", domain.QueryUnknown},
		{"imperative", "Summarize the plot of Hamlet", domain.QueryUnknown},
		{"empty", "", domain.QueryUnknown},
		{"whitespace only", "   ", domain.QueryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, debate.ClassifyQuery(tt.query))
		})
	}
}

func TestClassifyQuery_AbstractBeatsLeadIn(t *testing.T) {
	// Abstract keywords win even when the query opens with a factual
	// lead-in phrase.
	require.Equal(t, domain.QueryAbstract, debate.ClassifyQuery("What is free will?"))
}
