package profile

// hintThreshold is the minimum share an archetype needs before its behavioral
// bias is surfaced to the prompt layer.
const hintThreshold = 0.25

var hints = map[Archetype]string{
	Aesthetics:       "Bias training volume toward hypertrophy work and visible-progress milestones.",
	Performance:      "Bias programming toward progressive overload, measurable strength and conditioning targets.",
	WeightManagement: "Favor a modest calorie deficit and high-satiety meals; avoid aggressive cuts.",
	Longevity:        "Favor joint-friendly movement, recovery quality and sustainable weekly load.",
	Mindset:          "Favor low-friction, batchable habits and consistency streaks over intensity.",
}

// DeriveHints returns one guidance string per archetype whose weight meets
// the threshold, in fixed archetype order.
func DeriveHints(w Weights) []string {
	var out []string
	for _, a := range archetypeOrder {
		if w[a] >= hintThreshold {
			out = append(out, hints[a])
		}
	}
	return out
}
