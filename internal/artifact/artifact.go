package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind tags the unit of generated content a caller is asking for. The kind
// drives cache TTLs, cost attribution and which fallback default applies.
type Kind string

const (
	KindWorkoutPlan     Kind = "workout_plan"
	KindMealPlan        Kind = "meal_plan"
	KindChatReply       Kind = "chat_reply"
	KindDailyFeed       Kind = "daily_feed"
	KindMarketBrief     Kind = "market_brief"
	KindMealSuggestions Kind = "meal_suggestions"
	KindNutritionTip    Kind = "nutrition_tip"
	KindMotivationLine  Kind = "motivation_line"
)

var kindTTLs = map[Kind]time.Duration{
	KindWorkoutPlan:     12 * time.Hour,
	KindMealPlan:        6 * time.Hour,
	KindChatReply:       5 * time.Minute,
	KindDailyFeed:       24 * time.Hour,
	KindMarketBrief:     time.Hour,
	KindMealSuggestions: 6 * time.Hour,
	KindNutritionTip:    time.Hour,
	KindMotivationLine:  15 * time.Minute,
}

// ErrUnknownKind is returned for kind tags outside the closed set.
var ErrUnknownKind = errors.New("unknown artifact kind")

// ParseKind validates a wire-level kind tag.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kindTTLs[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// DefaultTTL returns the cache lifetime for a kind. Callers may override it
// per request; the cache itself is TTL-kind-agnostic.
func (k Kind) DefaultTTL() time.Duration {
	return kindTTLs[k]
}

// Structured reports whether provider output for this kind must parse as
// JSON. Unparsable output for a structured kind counts as a provider failure.
func (k Kind) Structured() bool {
	switch k {
	case KindChatReply, KindNutritionTip, KindMotivationLine:
		return false
	default:
		return true
	}
}

// Artifact is the tagged variant returned to callers: exactly one payload
// field is set, matching Kind.
type Artifact struct {
	Kind Kind `json:"kind"`

	WorkoutPlan     *WorkoutPlan     `json:"workout_plan,omitempty"`
	MealPlan        *MealPlan        `json:"meal_plan,omitempty"`
	DailyFeed       *DailyFeed       `json:"daily_feed,omitempty"`
	MarketBrief     *MarketBrief     `json:"market_brief,omitempty"`
	MealSuggestions *MealSuggestions `json:"meal_suggestions,omitempty"`
	Text            string           `json:"text,omitempty"`
}

type WorkoutPlan struct {
	Title string       `json:"title"`
	Days  []WorkoutDay `json:"days"`
}

type WorkoutDay struct {
	Day       string     `json:"day"`
	Focus     string     `json:"focus"`
	Exercises []Exercise `json:"exercises"`
}

type Exercise struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps string `json:"reps"`
}

type MealPlan struct {
	TargetCalories int    `json:"target_calories"`
	Meals          []Meal `json:"meals"`
}

type Meal struct {
	Name        string `json:"name"`
	Calories    int    `json:"calories"`
	Description string `json:"description,omitempty"`
}

type DailyFeed struct {
	Items []FeedItem `json:"items"`
}

type FeedItem struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type MarketBrief struct {
	Symbol    string `json:"symbol"`
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment,omitempty"`
}

type MealSuggestions struct {
	Suggestions []string `json:"suggestions"`
}

// Decode turns raw provider content into the variant for a kind. For
// structured kinds a body that does not parse, or parses to an empty
// payload, is an error so the dispatcher-level fallback chain can engage.
func Decode(kind Kind, content string) (Artifact, error) {
	a := Artifact{Kind: kind}
	content = strings.TrimSpace(content)

	if !kind.Structured() {
		if content == "" {
			return Artifact{}, fmt.Errorf("empty %s content", kind)
		}
		a.Text = content
		return a, nil
	}

	// Models frequently wrap JSON in markdown fences; strip them before
	// parsing.
	content = stripFences(content)

	switch kind {
	case KindWorkoutPlan:
		var p WorkoutPlan
		if err := json.Unmarshal([]byte(content), &p); err != nil {
			return Artifact{}, fmt.Errorf("decode %s: %w", kind, err)
		}
		if len(p.Days) == 0 {
			return Artifact{}, fmt.Errorf("decode %s: no days", kind)
		}
		a.WorkoutPlan = &p
	case KindMealPlan:
		var p MealPlan
		if err := json.Unmarshal([]byte(content), &p); err != nil {
			return Artifact{}, fmt.Errorf("decode %s: %w", kind, err)
		}
		if len(p.Meals) == 0 {
			return Artifact{}, fmt.Errorf("decode %s: no meals", kind)
		}
		a.MealPlan = &p
	case KindDailyFeed:
		var p DailyFeed
		if err := json.Unmarshal([]byte(content), &p); err != nil {
			return Artifact{}, fmt.Errorf("decode %s: %w", kind, err)
		}
		if len(p.Items) == 0 {
			return Artifact{}, fmt.Errorf("decode %s: no items", kind)
		}
		a.DailyFeed = &p
	case KindMarketBrief:
		var p MarketBrief
		if err := json.Unmarshal([]byte(content), &p); err != nil {
			return Artifact{}, fmt.Errorf("decode %s: %w", kind, err)
		}
		if p.Summary == "" {
			return Artifact{}, fmt.Errorf("decode %s: no summary", kind)
		}
		a.MarketBrief = &p
	case KindMealSuggestions:
		var p MealSuggestions
		if err := json.Unmarshal([]byte(content), &p); err != nil {
			return Artifact{}, fmt.Errorf("decode %s: %w", kind, err)
		}
		if len(p.Suggestions) == 0 {
			return Artifact{}, fmt.Errorf("decode %s: no suggestions", kind)
		}
		a.MealSuggestions = &p
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return a, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
