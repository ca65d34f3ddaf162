package debate

// Config contains debate orchestration settings.
type Config struct {
	// Models lists the participating models. At least two are required;
	// history ordering follows this list.
	Models []string `env:"DEBATE_MODELS" envSeparator:"," envDefault:"gpt-4o,gpt-4o-mini"`

	// ConsensusMethod names the voting rule: majority, supermajority, or
	// unanimous.
	ConsensusMethod string `env:"DEBATE_CONSENSUS_METHOD" envDefault:"majority"`

	MaxRounds int `env:"DEBATE_MAX_ROUNDS" envDefault:"3"`
	MinRounds int `env:"DEBATE_MIN_ROUNDS" envDefault:"1"`

	// UseSpecializedPrompts selects factual/abstract first-round templates
	// by query classification.
	UseSpecializedPrompts bool `env:"DEBATE_SPECIALIZED_PROMPTS" envDefault:"true"`

	// RevealModelIdentities presents previous-round responses under real
	// model names; when false, models see "Model 1", "Model 2", ….
	RevealModelIdentities bool `env:"DEBATE_REVEAL_IDENTITIES" envDefault:"true"`

	// IncludeHistory attaches the full round history to results.
	IncludeHistory bool `env:"DEBATE_INCLUDE_HISTORY" envDefault:"false"`

	// RequireConsensus makes a debate that ends without consensus an
	// error instead of forcing the voter's computed answer.
	RequireConsensus bool `env:"DEBATE_REQUIRE_CONSENSUS" envDefault:"false"`

	Temperature float64 `env:"DEBATE_TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int     `env:"DEBATE_MAX_TOKENS"  envDefault:"1024"`
}
