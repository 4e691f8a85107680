// Package diet holds the only pure algorithmic logic in the system:
// the closed-form calorie/macronutrient estimate used by the site's
// Diet Builder and the bot.
package diet

import (
	"math"
	"math/rand"
	"time"

	"cosmodiet-go/internal/models"
)

// Level is one selectable multiplier (activity or gravity).
type Level struct {
	Label  string
	Factor float64
}

// Keyed by the digit the bot asks for; the web sends the label.
var (
	ActivityLevels = map[string]Level{
		"1": {"Низкая", 1.2},
		"2": {"Средняя", 1.55},
		"3": {"Высокая", 1.9},
	}
	GravityLevels = map[string]Level{
		"1": {"Микрогравитация (МКС)", 0.85},
		"2": {"Лунная гравитация", 0.92},
		"3": {"Марсианская гравитация", 0.95},
	}
)

// ActivityByLabel resolves an activity level by its display label.
func ActivityByLabel(label string) (Level, bool) { return byLabel(ActivityLevels, label) }

// GravityByLabel resolves a gravity level by its display label.
func GravityByLabel(label string) (Level, bool) { return byLabel(GravityLevels, label) }

func byLabel(levels map[string]Level, label string) (Level, bool) {
	for _, l := range levels {
		if l.Label == label {
			return l, true
		}
	}
	return Level{}, false
}

// Input validation ranges, shared by the HTTP handler and the bot.
const (
	HeightMin, HeightMax = 50, 250
	WeightMin, WeightMax = 20, 300
	AgeMin, AgeMax       = 10, 120
)

func ValidHeight(h float64) bool { return h >= HeightMin && h <= HeightMax }
func ValidWeight(w float64) bool { return w >= WeightMin && w <= WeightMax }
func ValidAge(a int) bool        { return a >= AgeMin && a <= AgeMax }

// Result is the computed daily ration.
type Result struct {
	Calories int
	Protein  int
	Fat      int
	Carbs    int
}

// Calculate derives the daily ration from biometrics and environment.
// Mifflin-St Jeor base estimate scaled by the gravity factor, then by
// the activity factor; macros split 30/25/45 percent of calories at
// 4/9/4 kcal per gram. Each macro rounds independently, so the grams
// may not sum back to exactly the calorie total.
func Calculate(height, weight float64, age int, activityFactor, gravityFactor float64) Result {
	bmr := (10*weight + 6.25*height - 5*float64(age) + 5) * gravityFactor
	calories := int(math.Round(bmr * activityFactor))
	return Result{
		Calories: calories,
		Protein:  int(math.Round(float64(calories) * 0.3 / 4)),
		Fat:      int(math.Round(float64(calories) * 0.25 / 9)),
		Carbs:    int(math.Round(float64(calories) * 0.45 / 4)),
	}
}

// RecommendedFoods is the catalog the plan samples from.
var RecommendedFoods = []string{
	"Сублимированная курица", "Лиофилизированные овощи", "Обезвоженные фрукты",
	"Энергетические батончики", "Протеиновые коктейли", "Омега-3 капсулы",
	"Витаминные комплексы", "Минерализованная вода", "Сублимированный творог",
	"Ореховые пасты",
}

// PickFoods returns n random distinct recommendations.
func PickFoods(n int) []string {
	if n > len(RecommendedFoods) {
		n = len(RecommendedFoods)
	}
	idx := rand.Perm(len(RecommendedFoods))
	foods := make([]string, 0, n)
	for _, i := range idx[:n] {
		foods = append(foods, RecommendedFoods[i])
	}
	return foods
}

// EntryDateFormat is the timestamp layout history entries carry.
const EntryDateFormat = "02.01.2006, 15:04"

// BuildEntry assembles a history entry for a freshly computed ration.
func BuildEntry(height, weight float64, age int, activity, gravity Level, now time.Time) models.DietEntry {
	r := Calculate(height, weight, age, activity.Factor, gravity.Factor)
	return models.DietEntry{
		Date:             now.Format(EntryDateFormat),
		Height:           height,
		Weight:           weight,
		Age:              age,
		Activity:         activity.Label,
		Gravity:          gravity.Label,
		Calories:         r.Calories,
		Protein:          r.Protein,
		Fat:              r.Fat,
		Carbs:            r.Carbs,
		RecommendedFoods: PickFoods(6),
	}
}
