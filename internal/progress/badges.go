package progress

import (
	"slices"

	"keepsake/internal/keepsake"
)

// Badge ids of the exercise ladder.
const (
	BadgeSprout     = "sprout"
	BadgeCultivator = "cultivator"
	BadgeGuardian   = "guardian"
	BadgeBeacon     = "beacon"
)

const (
	// AbilityStep is the progress an ability gains per completed exercise.
	AbilityStep = 20

	// AbilityMax caps the progress of one ability.
	AbilityMax = 100

	// DefaultAbilityCount is the number of abilities in the catalogue. Abilities
	// without recorded progress count as zero toward the beacon badge.
	DefaultAbilityCount = 9
)

// NewBadges returns the ladder badges p qualifies for but does not hold yet,
// in ladder order. Badges are never taken away.
func NewBadges(p keepsake.Progress, abilities int) []string {
	var out []string
	add := func(id string, ok bool) {
		if ok && !slices.Contains(p.Badges, id) {
			out = append(out, id)
		}
	}
	done := len(p.CompletedExercises)
	add(BadgeSprout, true)
	add(BadgeCultivator, done >= 3)
	add(BadgeGuardian, done >= 10)
	add(BadgeBeacon, meanAbility(p.AbilitiesProgress, abilities) >= 80)
	return out
}

func meanAbility(progress map[string]int, abilities int) float64 {
	n := max(len(progress), abilities)
	if n == 0 {
		return 0
	}
	sum := 0
	for _, v := range progress {
		sum += v
	}
	return float64(sum) / float64(n)
}
