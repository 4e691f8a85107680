package diet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference case: 175 cm, 70 kg, 30 years, Средняя (1.55),
// Микрогравитация (0.85). bmr = (700+1093.75-150+5)*0.85 = 1401.4375,
// calories = round(1401.4375*1.55) = 2172.
func TestCalculate_Reference(t *testing.T) {
	r := Calculate(175, 70, 30, 1.55, 0.85)

	assert.Equal(t, 2172, r.Calories)
	assert.Equal(t, 163, r.Protein)
	assert.Equal(t, 60, r.Fat)
	assert.Equal(t, 244, r.Carbs)
}

func TestCalculate_Deterministic(t *testing.T) {
	a := Calculate(180, 80, 40, 1.9, 0.92)
	b := Calculate(180, 80, 40, 1.9, 0.92)
	assert.Equal(t, a, b)
}

func TestCalculate_NonNegativeAcrossRanges(t *testing.T) {
	cases := []struct {
		name           string
		height, weight float64
		age            int
	}{
		{"minimums", HeightMin, WeightMin, AgeMax},
		{"maximums", HeightMax, WeightMax, AgeMin},
		{"typical", 175, 70, 30},
		{"tall light old", 250, 20, 120},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, act := range ActivityLevels {
				for _, grav := range GravityLevels {
					r := Calculate(tc.height, tc.weight, tc.age, act.Factor, grav.Factor)
					assert.GreaterOrEqual(t, r.Calories, 0)
					assert.GreaterOrEqual(t, r.Protein, 0)
					assert.GreaterOrEqual(t, r.Fat, 0)
					assert.GreaterOrEqual(t, r.Carbs, 0)
				}
			}
		})
	}
}

func TestValidationRanges(t *testing.T) {
	assert.True(t, ValidHeight(175))
	assert.False(t, ValidHeight(49))
	assert.False(t, ValidHeight(251))
	assert.True(t, ValidWeight(70))
	assert.False(t, ValidWeight(19))
	assert.True(t, ValidAge(30))
	assert.False(t, ValidAge(9))
	assert.False(t, ValidAge(121))
}

func TestLevelsByLabel(t *testing.T) {
	l, ok := ActivityByLabel("Средняя")
	require.True(t, ok)
	assert.Equal(t, 1.55, l.Factor)

	g, ok := GravityByLabel("Микрогравитация (МКС)")
	require.True(t, ok)
	assert.Equal(t, 0.85, g.Factor)

	_, ok = ActivityByLabel("Запредельная")
	assert.False(t, ok)
}

func TestPickFoods(t *testing.T) {
	foods := PickFoods(6)
	assert.Len(t, foods, 6)

	seen := make(map[string]bool)
	for _, f := range foods {
		assert.Contains(t, RecommendedFoods, f)
		assert.False(t, seen[f], "duplicate recommendation %q", f)
		seen[f] = true
	}

	assert.Len(t, PickFoods(100), len(RecommendedFoods))
}

func TestBuildEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	e := BuildEntry(175, 70, 30, ActivityLevels["2"], GravityLevels["1"], now)

	assert.Equal(t, "01.03.2026, 12:30", e.Date)
	assert.Equal(t, "Средняя", e.Activity)
	assert.Equal(t, "Микрогравитация (МКС)", e.Gravity)
	assert.Equal(t, 2172, e.Calories)
	assert.Len(t, e.RecommendedFoods, 6)
}
