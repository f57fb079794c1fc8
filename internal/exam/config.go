package exam

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Config is a generation request. A raw request may specify per-type
// question counts, per-type ratios, or a mix; Resolve normalizes it into
// a concrete count per type before it reaches the generator. An Exam
// stores only resolved configs (explicit counts, concrete seed) so a run
// can be reasoned about after the fact.
type Config struct {
	TotalQuestions int                      `json:"total_questions"`
	Counts         map[QuestionType]int     `json:"counts,omitempty"`
	Ratios         map[QuestionType]float64 `json:"ratios,omitempty"`
	Difficulty     Difficulty               `json:"difficulty"`
	Language       string                   `json:"language"`
	Provider       string                   `json:"provider"`
	ModelName      string                   `json:"model_name,omitempty"`
	Seed           *int64                   `json:"seed,omitempty"`
}

// Default generation ratios for types with neither an explicit count nor
// an explicit ratio. Open-ended stays at zero unless asked for.
var defaultRatios = map[QuestionType]float64{
	SingleChoice:   0.7,
	MultipleChoice: 0.3,
	OpenEnded:      0,
}

// DefaultConfig returns the standard generation request.
func DefaultConfig() Config {
	return Config{
		TotalQuestions: 20,
		Difficulty:     Mixed,
		Language:       "en",
		Provider:       "openai",
	}
}

// Resolve validates a raw Config and returns a copy with a concrete
// count for every question type and a concrete seed.
//
// Precedence: an explicit count always wins for its type. Ratios apply
// only to types without a count, over the remaining question budget.
// Types with neither get a share of the unclaimed ratio mass in
// proportion to the defaults (0.7 single, 0.3 multiple, 0 open-ended).
// Ratios are normalized, then rounded by largest remainder so the counts
// sum exactly to TotalQuestions.
func (c Config) Resolve() (Config, error) {
	if c.TotalQuestions <= 0 {
		return Config{}, &ConfigError{Msg: fmt.Sprintf("total_questions must be positive, got %d", c.TotalQuestions)}
	}
	if c.Difficulty == "" {
		c.Difficulty = Mixed
	}
	switch c.Difficulty {
	case Easy, Medium, Hard, Mixed:
	default:
		return Config{}, &ConfigError{Msg: fmt.Sprintf("unknown difficulty %q", c.Difficulty)}
	}
	if c.Language == "" {
		c.Language = "en"
	}

	counted := 0
	for t, n := range c.Counts {
		if !knownType(t) {
			return Config{}, &ConfigError{Msg: fmt.Sprintf("unknown question type %q in counts", t)}
		}
		if n < 0 {
			return Config{}, &ConfigError{Msg: fmt.Sprintf("count for %s must be non-negative, got %d", t, n)}
		}
		counted += n
	}
	if counted > c.TotalQuestions {
		return Config{}, &ConfigError{Msg: fmt.Sprintf("counts sum to %d, more than total_questions %d", counted, c.TotalQuestions)}
	}
	for t, r := range c.Ratios {
		if !knownType(t) {
			return Config{}, &ConfigError{Msg: fmt.Sprintf("unknown question type %q in ratios", t)}
		}
		if r < 0 || r > 1 {
			return Config{}, &ConfigError{Msg: fmt.Sprintf("ratio for %s must be in [0,1], got %g", t, r)}
		}
	}

	resolved := c
	resolved.Counts = map[QuestionType]int{}
	for t, n := range c.Counts {
		resolved.Counts[t] = n
	}

	// Types still competing for the remaining budget, in canonical order.
	var open []QuestionType
	for _, t := range Types {
		if _, ok := resolved.Counts[t]; !ok {
			open = append(open, t)
			resolved.Counts[t] = 0
		}
	}

	budget := c.TotalQuestions - counted
	if budget > 0 && len(open) > 0 {
		ratios, err := effectiveRatios(open, c.Ratios)
		if err != nil {
			return Config{}, err
		}
		allocate(resolved.Counts, open, ratios, budget)
	}

	resolved.Ratios = nil
	if resolved.Seed == nil {
		seed := time.Now().UnixNano()
		resolved.Seed = &seed
	}
	return resolved, nil
}

func knownType(t QuestionType) bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// effectiveRatios builds the ratio per open type: user-specified ratios
// win, and the unclaimed mass is split over the rest by the defaults.
func effectiveRatios(open []QuestionType, user map[QuestionType]float64) (map[QuestionType]float64, error) {
	ratios := map[QuestionType]float64{}
	userSum := 0.0
	var unset []QuestionType
	for _, t := range open {
		if r, ok := user[t]; ok {
			ratios[t] = r
			userSum += r
		} else {
			unset = append(unset, t)
		}
	}
	if userSum > 1+1e-9 {
		return nil, &ConfigError{Msg: fmt.Sprintf("ratios sum to %.2f, more than 1", userSum)}
	}

	mass := 1 - userSum
	defSum := 0.0
	for _, t := range unset {
		defSum += defaultRatios[t]
	}
	for _, t := range unset {
		if defSum > 0 {
			ratios[t] = mass * defaultRatios[t] / defSum
		} else {
			ratios[t] = 0
		}
	}
	return ratios, nil
}

// allocate distributes budget over the open types proportionally to
// their ratios, rounding by largest remainder so the result sums to
// budget exactly. With all ratios zero the whole budget goes to the
// first open type.
func allocate(counts map[QuestionType]int, open []QuestionType, ratios map[QuestionType]float64, budget int) {
	sum := 0.0
	for _, t := range open {
		sum += ratios[t]
	}
	if sum == 0 {
		counts[open[0]] += budget
		return
	}

	type share struct {
		t    QuestionType
		frac float64
	}
	assigned := 0
	shares := make([]share, 0, len(open))
	for _, t := range open {
		raw := ratios[t] / sum * float64(budget)
		whole := int(math.Floor(raw))
		counts[t] += whole
		assigned += whole
		shares = append(shares, share{t: t, frac: raw - float64(whole)})
	}

	// Largest remainder first; canonical order breaks ties.
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].frac > shares[j].frac
	})
	for i := 0; assigned < budget; i++ {
		counts[shares[i%len(shares)].t]++
		assigned++
	}
}
