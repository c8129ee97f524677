package profile

import (
	"math"
	"strings"
)

// Archetype is one of the fixed personalization categories used to bias
// generated content.
type Archetype string

const (
	Aesthetics       Archetype = "aesthetics"
	Performance      Archetype = "performance"
	WeightManagement Archetype = "weight_management"
	Longevity        Archetype = "longevity"
	Mindset          Archetype = "mindset"
)

// archetypeOrder fixes iteration order so hint derivation is stable.
var archetypeOrder = []Archetype{
	Aesthetics,
	Performance,
	WeightManagement,
	Longevity,
	Mindset,
}

// Weights maps each archetype to a non-negative share. After Normalize the
// shares sum to 1.0 at three decimals.
type Weights map[Archetype]float64

// Signal is the raw personalization input. Weights takes priority over
// Preferences when both are set; an empty signal falls back to defaults.
type Signal struct {
	Weights     map[string]float64 `json:"weights,omitempty"`
	Preferences []string           `json:"preferences,omitempty"`
}

// synonyms maps raw user-facing labels onto archetypes. Labels not listed
// here contribute no weight.
var synonyms = map[string]Archetype{
	"aesthetics": Aesthetics,
	"muscle":     Aesthetics,
	"tone":       Aesthetics,
	"physique":   Aesthetics,
	"looks":      Aesthetics,

	"performance": Performance,
	"strength":    Performance,
	"endurance":   Performance,
	"speed":       Performance,
	"athletic":    Performance,
	"sport":       Performance,

	"weight_management": WeightManagement,
	"weight":            WeightManagement,
	"weight_loss":       WeightManagement,
	"fat_loss":          WeightManagement,
	"lose_weight":       WeightManagement,

	"longevity": Longevity,
	"health":    Longevity,
	"energy":    Longevity,
	"vitality":  Longevity,
	"mobility":  Longevity,

	"mindset":    Mindset,
	"discipline": Mindset,
	"confidence": Mindset,
	"stress":     Mindset,
	"habits":     Mindset,
}

// Defaults is the distribution used when no usable signal is present. Biased
// toward adherence so downstream consumers always get something actionable.
func Defaults() Weights {
	return Weights{
		Aesthetics:       0.2,
		Performance:      0,
		WeightManagement: 0.3,
		Longevity:        0.1,
		Mindset:          0.4,
	}
}

// Normalize converts a raw signal into a full distribution over the archetype
// set. It never fails: malformed or empty input yields Defaults().
func Normalize(sig Signal) Weights {
	if len(sig.Weights) > 0 {
		if w, ok := fromMap(sig.Weights); ok {
			return w
		}
	}
	if len(sig.Preferences) > 0 {
		if w, ok := fromPreferences(sig.Preferences); ok {
			return w
		}
	}
	return normalize(Defaults())
}

// fromMap sums numeric values per resolved archetype, then normalizes.
func fromMap(raw map[string]float64) (Weights, bool) {
	w := zeroWeights()
	any := false
	for label, v := range raw {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		a, ok := resolve(label)
		if !ok {
			continue
		}
		w[a] += v
		any = true
	}
	if !any {
		return nil, false
	}
	return normalize(w), true
}

// fromPreferences maps an ordered pick list onto decreasing weights:
// top pick 0.7, second 0.3. With a third pick, 0.05 is taken from each of
// the first two and given to the third.
func fromPreferences(prefs []string) (Weights, bool) {
	var picks []Archetype
	seen := map[Archetype]bool{}
	for _, label := range prefs {
		a, ok := resolve(label)
		if !ok || seen[a] {
			continue
		}
		seen[a] = true
		picks = append(picks, a)
	}

	w := zeroWeights()
	switch len(picks) {
	case 0:
		return nil, false
	case 1:
		w[picks[0]] = 1.0
	case 2:
		w[picks[0]] = 0.7
		w[picks[1]] = 0.3
	default:
		w[picks[0]] = 0.65
		w[picks[1]] = 0.25
		w[picks[2]] = 0.10
	}
	return normalize(w), true
}

func resolve(label string) (Archetype, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	a, ok := synonyms[key]
	return a, ok
}

func zeroWeights() Weights {
	w := make(Weights, len(archetypeOrder))
	for _, a := range archetypeOrder {
		w[a] = 0
	}
	return w
}

// normalize divides by the sum and rounds to three decimals. Residual
// rounding drift is folded into the largest share so the total is exactly
// 1.000, which keeps fingerprints stable across re-normalization.
func normalize(w Weights) Weights {
	var sum float64
	for _, v := range w {
		sum += v
	}
	out := zeroWeights()
	if sum <= 0 {
		return out
	}

	var largest Archetype
	var total float64
	for _, a := range archetypeOrder {
		out[a] = round3(w[a] / sum)
		total += out[a]
		if out[a] > out[largest] || largest == "" {
			largest = a
		}
	}
	if drift := 1.0 - total; drift != 0 {
		out[largest] = round3(out[largest] + drift)
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
