package artifact

// defaults holds pre-defined conservative artifacts served when every
// provider fails for a kind. Kinds without an entry surface the failure to
// the caller instead.
var defaults = map[Kind]Artifact{
	KindMealSuggestions: {
		Kind: KindMealSuggestions,
		MealSuggestions: &MealSuggestions{
			Suggestions: []string{
				"Greek yogurt with berries and a handful of oats",
				"Grilled chicken, rice and steamed vegetables",
				"Omelette with spinach and wholegrain toast",
				"Lentil soup with a side salad",
			},
		},
	},
	KindNutritionTip: {
		Kind: KindNutritionTip,
		Text: "Build most meals around a lean protein source and vegetables, and keep water within reach through the day.",
	},
	KindMotivationLine: {
		Kind: KindMotivationLine,
		Text: "Showing up today counts more than a perfect plan tomorrow.",
	},
	KindDailyFeed: {
		Kind: KindDailyFeed,
		DailyFeed: &DailyFeed{
			Items: []FeedItem{
				{Title: "Keep the streak", Body: "A short session still moves you forward. Ten focused minutes beats a skipped day."},
				{Title: "Hydration check", Body: "Aim for a glass of water with every meal today."},
			},
		},
	},
}

// Default returns the fallback artifact for a kind, if one is defined.
func Default(kind Kind) (Artifact, bool) {
	a, ok := defaults[kind]
	return a, ok
}
