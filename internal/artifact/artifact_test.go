package artifact

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Workout_Plan ")
	if err != nil {
		t.Fatalf("ParseKind: %v", err)
	}
	if k != KindWorkoutPlan {
		t.Fatalf("got %q, want %q", k, KindWorkoutPlan)
	}

	if _, err := ParseKind("horoscope"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestDecodeStructured(t *testing.T) {
	body := `{"title":"Push/Pull","days":[{"day":"Mon","focus":"push","exercises":[{"name":"Bench Press","sets":4,"reps":"6-8"}]}]}`

	a, err := Decode(KindWorkoutPlan, body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if a.WorkoutPlan == nil || len(a.WorkoutPlan.Days) != 1 {
		t.Fatalf("unexpected artifact: %#v", a)
	}
	if a.WorkoutPlan.Days[0].Exercises[0].Name != "Bench Press" {
		t.Fatalf("unexpected exercise: %#v", a.WorkoutPlan.Days[0])
	}
}

func TestDecodeStripsMarkdownFences(t *testing.T) {
	body := "```json\n{\"suggestions\":[\"eggs\"]}\n```"

	a, err := Decode(KindMealSuggestions, body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(a.MealSuggestions.Suggestions) != 1 || a.MealSuggestions.Suggestions[0] != "eggs" {
		t.Fatalf("unexpected suggestions: %#v", a.MealSuggestions)
	}
}

func TestDecodeMalformedStructured(t *testing.T) {
	cases := map[Kind]string{
		KindWorkoutPlan:     `not json at all`,
		KindMealPlan:        `{"meals":[]}`,
		KindDailyFeed:       `{"items":[]}`,
		KindMarketBrief:     `{"symbol":"AAPL"}`,
		KindMealSuggestions: `{}`,
	}
	for kind, body := range cases {
		if _, err := Decode(kind, body); err == nil {
			t.Fatalf("%s: expected decode error for %q", kind, body)
		}
	}
}

func TestDecodeText(t *testing.T) {
	a, err := Decode(KindChatReply, "  You did well this week.  ")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if a.Text != "You did well this week." {
		t.Fatalf("unexpected text: %q", a.Text)
	}

	if _, err := Decode(KindMotivationLine, "   "); err == nil {
		t.Fatalf("expected error for empty text content")
	}
}

func TestDefaults(t *testing.T) {
	a, ok := Default(KindMealSuggestions)
	if !ok || a.MealSuggestions == nil || len(a.MealSuggestions.Suggestions) == 0 {
		t.Fatalf("expected meal suggestions default, got %#v", a)
	}

	if _, ok := Default(KindWorkoutPlan); ok {
		t.Fatalf("workout plans must not have a silent default")
	}

	for kind, d := range defaults {
		if d.Kind != kind {
			t.Fatalf("default for %s tagged as %s", kind, d.Kind)
		}
	}
}

func TestKindTTLs(t *testing.T) {
	for kind, ttl := range kindTTLs {
		if ttl <= 0 {
			t.Fatalf("%s has non-positive ttl", kind)
		}
	}
	if KindDailyFeed.DefaultTTL() != 24*time.Hour {
		t.Fatalf("daily feed ttl = %v, want 24h", KindDailyFeed.DefaultTTL())
	}
}
