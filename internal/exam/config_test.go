package exam

import (
	"errors"
	"testing"
)

func seed(v int64) *int64 { return &v }

func TestResolve_DefaultRatios(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = seed(1)

	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Counts[SingleChoice] != 14 {
		t.Errorf("single_choice: expected 14, got %d", resolved.Counts[SingleChoice])
	}
	if resolved.Counts[MultipleChoice] != 6 {
		t.Errorf("multiple_choice: expected 6, got %d", resolved.Counts[MultipleChoice])
	}
	if resolved.Counts[OpenEnded] != 0 {
		t.Errorf("open_ended: expected 0, got %d", resolved.Counts[OpenEnded])
	}
	if resolved.Ratios != nil {
		t.Error("resolved config should not carry ratios")
	}
}

func TestResolve_CountsWinOverRatios(t *testing.T) {
	cfg := Config{
		TotalQuestions: 10,
		Counts:         map[QuestionType]int{SingleChoice: 2},
		Ratios:         map[QuestionType]float64{SingleChoice: 0.9, OpenEnded: 0.5},
	}

	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Counts[SingleChoice] != 2 {
		t.Errorf("explicit count overridden: got %d", resolved.Counts[SingleChoice])
	}
	// Budget of 8 split between open_ended (0.5) and multiple_choice
	// (remaining mass 0.5, multiple is the only defaulted type).
	if resolved.Counts[OpenEnded] != 4 {
		t.Errorf("open_ended: expected 4, got %d", resolved.Counts[OpenEnded])
	}
	if resolved.Counts[MultipleChoice] != 4 {
		t.Errorf("multiple_choice: expected 4, got %d", resolved.Counts[MultipleChoice])
	}
}

func TestResolve_CountsSumToTotal(t *testing.T) {
	cases := []struct {
		name   string
		total  int
		ratios map[QuestionType]float64
	}{
		{"thirds", 10, map[QuestionType]float64{SingleChoice: 1.0 / 3, MultipleChoice: 1.0 / 3, OpenEnded: 1.0 / 3}},
		{"sub-one sum normalized", 7, map[QuestionType]float64{SingleChoice: 0.3, MultipleChoice: 0.3}},
		{"single question", 1, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{TotalQuestions: tc.total, Ratios: tc.ratios}
			resolved, err := cfg.Resolve()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			sum := 0
			for _, t2 := range Types {
				sum += resolved.Counts[t2]
			}
			if sum != tc.total {
				t.Errorf("counts sum to %d, want %d", sum, tc.total)
			}
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	cfg := Config{
		TotalQuestions: 9,
		Ratios:         map[QuestionType]float64{SingleChoice: 0.4, MultipleChoice: 0.4, OpenEnded: 0.2},
		Seed:           seed(7),
	}
	a, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := cfg.Resolve()
	for _, qt := range Types {
		if a.Counts[qt] != b.Counts[qt] {
			t.Errorf("%s: %d vs %d across runs", qt, a.Counts[qt], b.Counts[qt])
		}
	}
}

func TestResolve_Errors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero total", Config{TotalQuestions: 0}},
		{"negative count", Config{TotalQuestions: 5, Counts: map[QuestionType]int{SingleChoice: -1}}},
		{"counts exceed total", Config{TotalQuestions: 3, Counts: map[QuestionType]int{SingleChoice: 2, MultipleChoice: 2}}},
		{"ratio out of range", Config{TotalQuestions: 5, Ratios: map[QuestionType]float64{SingleChoice: 1.5}}},
		{"ratios exceed one", Config{TotalQuestions: 5, Ratios: map[QuestionType]float64{SingleChoice: 0.8, MultipleChoice: 0.5}}},
		{"unknown type", Config{TotalQuestions: 5, Counts: map[QuestionType]int{"essay": 1}}},
		{"unknown difficulty", Config{TotalQuestions: 5, Difficulty: "extreme"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.Resolve()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestResolve_SeedAssignedWhenMissing(t *testing.T) {
	cfg := Config{TotalQuestions: 5}
	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Seed == nil {
		t.Fatal("resolved config must carry a concrete seed")
	}
}
