package progress

import (
	"math"
	"slices"
	"time"

	"keepsake/internal/keepsake"
)

const (
	// PhotoCompleteAnswers is the number of question ids in Answers that makes
	// a photo analysis count as complete. Blank values count.
	PhotoCompleteAnswers = 5

	// MaxStreakDays caps the reported streak.
	MaxStreakDays = 7

	// MinutesPerExercise is the time credited for each saved exercise.
	MinutesPerExercise = 10
)

// Exercises is the input to Compute: the three exercise collections.
type Exercises struct {
	Photos     []keepsake.PhotoAnalysis
	Characters []keepsake.CharacterExploration
	Skills     []keepsake.SkillHeritage
}

// Totals counts the records of each exercise type.
type Totals struct {
	Photo     int `json:"photo"`
	Character int `json:"character"`
	Skill     int `json:"skill"`
}

// Completion holds the per-type completion percentages.
type Completion struct {
	Photo     int `json:"photo"`
	Character int `json:"character"`
	Skill     int `json:"skill"`
}

// Insights counts the free-form content users have recorded.
type Insights struct {
	TotalCharacters int `json:"totalCharacters"`
	TotalSkills     int `json:"totalSkills"`
	// TotalInsights is photo answers plus character traits plus skill steps.
	TotalInsights   int `json:"totalInsights"`
	AvgAnswerLength int `json:"avgAnswerLength"`
}

// Overall holds the cross-type aggregates.
type Overall struct {
	TotalExercises int `json:"totalExercises"`
	CompletionRate int `json:"completionRate"`
	StreakDays     int `json:"streakDays"`
	// TotalTimeSpent is in minutes.
	TotalTimeSpent int `json:"totalTimeSpent"`
}

// Stats is the derived view of the exercise collections.
type Stats struct {
	Total      Totals     `json:"total"`
	Completion Completion `json:"completion"`
	Insights   Insights   `json:"insights"`
	Overall    Overall    `json:"overall"`
}

// Compute derives Stats from the exercise collections. Calendar days for the
// streak are taken in loc; a nil loc means UTC.
func Compute(ex Exercises, loc *time.Location) Stats {
	var st Stats
	st.Total = Totals{Photo: len(ex.Photos), Character: len(ex.Characters), Skill: len(ex.Skills)}

	st.Completion.Photo = rate(countFunc(ex.Photos, func(p keepsake.PhotoAnalysis) bool {
		return len(p.Answers) >= PhotoCompleteAnswers
	}), len(ex.Photos))
	st.Completion.Character = rate(countFunc(ex.Characters, func(c keepsake.CharacterExploration) bool {
		return c.Completed
	}), len(ex.Characters))
	st.Completion.Skill = rate(countFunc(ex.Skills, func(s keepsake.SkillHeritage) bool {
		return s.Completed
	}), len(ex.Skills))

	st.Insights = insights(ex)

	var times []time.Time
	for _, p := range ex.Photos {
		times = append(times, p.CreatedAt)
	}
	for _, c := range ex.Characters {
		times = append(times, c.CreatedAt)
	}
	for _, s := range ex.Skills {
		times = append(times, s.CreatedAt)
	}

	total := st.Total.Photo + st.Total.Character + st.Total.Skill
	st.Overall = Overall{
		TotalExercises: total,
		CompletionRate: OverallRate(st.Completion.Photo, st.Completion.Character, st.Completion.Skill),
		StreakDays:     StreakDays(times, loc),
		TotalTimeSpent: total * MinutesPerExercise,
	}
	return st
}

// OverallRate is the rounded mean of the non-zero rates. Types with a zero
// rate, including empty ones, do not pull the mean down.
func OverallRate(rates ...int) int {
	sum, n := 0, 0
	for _, r := range rates {
		if r > 0 {
			sum += r
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// StreakDays counts consecutive calendar days of activity ending at the most
// recent one, capped at MaxStreakDays. Several activities on one day count
// once; the first gap of more than a day ends the streak. Zero times are
// ignored.
func StreakDays(times []time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	days := make([]int, 0, len(times))
	for _, t := range times {
		if !t.IsZero() {
			days = append(days, dayNumber(t, loc))
		}
	}
	if len(days) == 0 {
		return 0
	}
	slices.Sort(days)
	slices.Reverse(days)

	streak := 1
	for i := 1; i < len(days); i++ {
		diff := days[i-1] - days[i]
		if diff == 1 {
			streak++
		} else if diff > 1 {
			break
		}
	}
	return min(streak, MaxStreakDays)
}

// dayNumber maps t to a day count that increases by one per calendar day in
// loc, regardless of daylight saving transitions.
func dayNumber(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func insights(ex Exercises) Insights {
	in := Insights{
		TotalCharacters: len(ex.Characters),
		TotalSkills:     len(ex.Skills),
	}
	answerLen, answers := 0, 0
	for _, p := range ex.Photos {
		in.TotalInsights += len(p.Answers)
		for _, a := range p.Answers {
			answerLen += len([]rune(a))
			answers++
		}
	}
	for _, c := range ex.Characters {
		in.TotalInsights += len(c.Traits)
	}
	for _, s := range ex.Skills {
		in.TotalInsights += len(s.Steps)
	}
	if answers > 0 {
		in.AvgAnswerLength = int(math.Round(float64(answerLen) / float64(answers)))
	}
	return in
}

func rate(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

func countFunc[T any](items []T, ok func(T) bool) int {
	n := 0
	for _, it := range items {
		if ok(it) {
			n++
		}
	}
	return n
}
