package questiongen

// Config controls the generator.
type Config struct {
	// Validators is the ordered chain run on every candidate; the first
	// failure wins.
	Validators []Validator

	// Grounding selects soft or strict enforcement of the
	// lexical-overlap heuristic.
	Grounding GroundingPolicy

	// MaxExtraAttempts is how many times a slot is retried after a
	// rejected or failed candidate before the slot is skipped.
	MaxExtraAttempts int

	// MinSectionChars is the minimum section text length for a section
	// to be used as question source material.
	MinSectionChars int

	// MaxPassageChars truncates section text embedded in the prompt.
	MaxPassageChars int

	// MaxPriorStems bounds the already-used-stems list in the prompt.
	MaxPriorStems int

	// MaxTokens is the token budget for provider responses.
	MaxTokens int

	// Temperature controls provider output randomness.
	Temperature float64
}

// DefaultConfig returns a Config with the standard validator chain and
// recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&GroundingValidator{},
			&DuplicateValidator{},
		},
		Grounding:        GroundingSoft,
		MaxExtraAttempts: 2,
		MinSectionChars:  80,
		MaxPassageChars:  4000,
		MaxPriorStems:    8,
		MaxTokens:        1024,
		Temperature:      0.7,
	}
}
