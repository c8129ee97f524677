package profile

import (
	"math"
	"strings"
	"testing"
)

func sumWeights(w Weights) float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

func TestNormalizeOrderedPreferences(t *testing.T) {
	w := Normalize(Signal{Preferences: []string{"performance", "aesthetics"}})

	if got := w[Performance]; math.Abs(got-0.7) > 0.001 {
		t.Fatalf("performance weight = %v, want 0.7", got)
	}
	if got := w[Aesthetics]; math.Abs(got-0.3) > 0.001 {
		t.Fatalf("aesthetics weight = %v, want 0.3", got)
	}
	for _, a := range []Archetype{WeightManagement, Longevity, Mindset} {
		if w[a] != 0 {
			t.Fatalf("%s weight = %v, want 0", a, w[a])
		}
	}
}

func TestNormalizeThirdPickBleed(t *testing.T) {
	w := Normalize(Signal{Preferences: []string{"strength", "muscle", "longevity"}})

	if math.Abs(w[Performance]-0.65) > 0.001 {
		t.Fatalf("top pick = %v, want 0.65", w[Performance])
	}
	if math.Abs(w[Aesthetics]-0.25) > 0.001 {
		t.Fatalf("second pick = %v, want 0.25", w[Aesthetics])
	}
	if math.Abs(w[Longevity]-0.10) > 0.001 {
		t.Fatalf("third pick = %v, want 0.10", w[Longevity])
	}
}

func TestNormalizeNumericMap(t *testing.T) {
	w := Normalize(Signal{Weights: map[string]float64{
		"strength": 2,
		"speed":    2, // same archetype, summed
		"mindset":  1,
		"???":      5, // unknown label dropped
	}})

	if math.Abs(w[Performance]-0.8) > 0.001 {
		t.Fatalf("performance = %v, want 0.8", w[Performance])
	}
	if math.Abs(w[Mindset]-0.2) > 0.001 {
		t.Fatalf("mindset = %v, want 0.2", w[Mindset])
	}
}

func TestNormalizeSumInvariant(t *testing.T) {
	cases := []Signal{
		{},
		{Preferences: []string{"muscle"}},
		{Preferences: []string{"weight loss", "Habits", "sport", "health"}},
		{Preferences: []string{"nonsense", "garbage"}}, // all dropped -> defaults
		{Weights: map[string]float64{"health": 0.33, "stress": 0.21, "tone": 0.07}},
		{Weights: map[string]float64{"health": -1, "bogus": 4}}, // falls back
	}
	for i, sig := range cases {
		w := Normalize(sig)
		if s := sumWeights(w); math.Abs(s-1.0) > 0.001 {
			t.Fatalf("case %d: weights sum to %v, want 1.0", i, s)
		}
		if len(w) != len(archetypeOrder) {
			t.Fatalf("case %d: expected all archetypes present, got %d", i, len(w))
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first := Normalize(Signal{Preferences: []string{"weight", "mindset", "muscle"}})

	raw := make(map[string]float64, len(first))
	for a, v := range first {
		raw[string(a)] = v
	}
	second := Normalize(Signal{Weights: raw})

	for _, a := range archetypeOrder {
		if math.Abs(first[a]-second[a]) > 0.001 {
			t.Fatalf("%s drifted on re-normalization: %v -> %v", a, first[a], second[a])
		}
	}
}

func TestNormalizeEmptyFallsBackToDefaults(t *testing.T) {
	w := Normalize(Signal{})
	if w[Mindset] != 0.4 || w[WeightManagement] != 0.3 || w[Aesthetics] != 0.2 || w[Longevity] != 0.1 {
		t.Fatalf("unexpected default distribution: %#v", w)
	}
}

func TestDeriveHints(t *testing.T) {
	w := Normalize(Signal{Preferences: []string{"performance", "aesthetics"}})
	got := DeriveHints(w)

	joined := strings.Join(got, "\n")
	if !strings.Contains(joined, "progressive overload") {
		t.Fatalf("expected performance hint, got %q", joined)
	}
	if strings.Contains(joined, "consistency streaks") {
		t.Fatalf("did not expect mindset hint, got %q", joined)
	}
	// aesthetics sits at 0.3 >= threshold
	if len(got) != 2 {
		t.Fatalf("expected 2 hints, got %d", len(got))
	}
}

func TestDeriveHintsStableOrder(t *testing.T) {
	w := Weights{Aesthetics: 0.5, Mindset: 0.5}
	for i := 0; i < 10; i++ {
		got := DeriveHints(w)
		if len(got) != 2 || got[0] != hints[Aesthetics] || got[1] != hints[Mindset] {
			t.Fatalf("hint order unstable: %v", got)
		}
	}
}
