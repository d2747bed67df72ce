package progress

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"keepsake/internal/keepsake"
)

// ErrEmptyReflection is returned by AddReflection for blank text.
var ErrEmptyReflection = errors.New("reflection is empty")

// Tracker connects the engine to stored data: it computes statistics from
// the Manager's collections, records newly met achievements and maintains
// the exercise progress record.
type Tracker struct {
	m         *keepsake.Manager
	clock     keepsake.Clock
	logger    keepsake.Logger
	loc       *time.Location
	abilities int
}

// NewTracker creates a Tracker over m. Streak days are counted in loc; a nil
// loc means UTC.
func NewTracker(m *keepsake.Manager, clock keepsake.Clock, logger keepsake.Logger, loc *time.Location) *Tracker {
	if loc == nil {
		loc = time.UTC
	}
	return &Tracker{m: m, clock: clock, logger: logger, loc: loc, abilities: DefaultAbilityCount}
}

// Summary is the dashboard view model.
type Summary struct {
	Stats        Stats    `json:"stats"`
	Achievements []Rule   `json:"achievements"`
	NewlyEarned  []string `json:"newlyEarned,omitempty"`
	Level        int      `json:"level"`
	Badges       []string `json:"badges"`
}

// Stats computes statistics from the stored exercise collections.
func (t *Tracker) Stats() Stats {
	return Compute(Exercises{
		Photos:     t.m.Photos().List(),
		Characters: t.m.Characters().List(),
		Skills:     t.m.Skills().List(),
	}, t.loc)
}

// unlocked returns the ids of stored achievements marked unlocked.
func (t *Tracker) unlocked() []string {
	var ids []string
	for _, a := range t.m.Achievements().List() {
		if a.Unlocked {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// Refresh recomputes statistics, unlocks every newly met achievement and
// returns the dashboard summary.
func (t *Tracker) Refresh() (*Summary, error) {
	st := t.Stats()
	have := t.unlocked()

	var earned []string
	for _, id := range Evaluate(st, have) {
		changed, err := t.m.UnlockAchievement(id)
		if err != nil {
			return nil, fmt.Errorf("refreshing achievements: %w", err)
		}
		if changed {
			earned = append(earned, id)
		}
	}
	have = append(have, earned...)

	sum := &Summary{
		Stats:       st,
		NewlyEarned: earned,
		Level:       Level(len(have)),
		Badges:      t.m.Progress().Get().Badges,
	}
	for _, r := range Rules {
		if slices.Contains(have, r.ID) {
			sum.Achievements = append(sum.Achievements, r)
		}
	}
	return sum, nil
}

// CompleteExercise records exerciseID as completed and advances abilityID.
// Completing the same exercise again changes nothing. It returns the badges
// earned by this completion.
func (t *Tracker) CompleteExercise(exerciseID, abilityID string) ([]string, error) {
	if exerciseID == "" {
		return nil, errors.New("completing exercise: empty id")
	}
	p := t.m.Progress().Get()
	if slices.Contains(p.CompletedExercises, exerciseID) {
		return nil, nil
	}

	p.CompletedExercises = append(p.CompletedExercises, exerciseID)
	if p.AbilitiesProgress == nil {
		p.AbilitiesProgress = map[string]int{}
	}
	if abilityID != "" {
		p.AbilitiesProgress[abilityID] = min(p.AbilitiesProgress[abilityID]+AbilityStep, AbilityMax)
	}
	badges := NewBadges(p, t.abilities)
	p.Badges = append(p.Badges, badges...)

	err := t.m.Progress().Update(keepsake.Fields{
		"completedExercises": p.CompletedExercises,
		"abilitiesProgress":  p.AbilitiesProgress,
		"badges":             p.Badges,
	})
	if err != nil {
		return nil, fmt.Errorf("completing exercise %s: %w", exerciseID, err)
	}
	for _, b := range badges {
		t.logger.Info("badge earned", "badge", b)
	}
	return badges, nil
}

// AddReflection appends a dated journal entry.
func (t *Tracker) AddReflection(text string) (keepsake.Reflection, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return keepsake.Reflection{}, ErrEmptyReflection
	}
	r := keepsake.Reflection{
		Date: t.clock.Now().In(t.loc).Format(time.DateOnly),
		Text: text,
	}
	p := t.m.Progress().Get()
	if err := t.m.Progress().Update(keepsake.Fields{"reflections": append(p.Reflections, r)}); err != nil {
		return keepsake.Reflection{}, fmt.Errorf("adding reflection: %w", err)
	}
	return r, nil
}

// AnalyzePhoto recomputes the stats of a stored photo analysis from its
// answers and saves them.
func (t *Tracker) AnalyzePhoto(id string) (keepsake.PhotoStats, error) {
	p, ok := t.m.Photos().Get(id)
	if !ok {
		return keepsake.PhotoStats{}, fmt.Errorf("analyzing photo %s: %w", id, keepsake.ErrNotFound)
	}
	st := AnalyzeAnswers(p.Answers)
	if err := t.m.Photos().Update(id, keepsake.Fields{"stats": st}); err != nil {
		return keepsake.PhotoStats{}, fmt.Errorf("analyzing photo %s: %w", id, err)
	}
	return st, nil
}
