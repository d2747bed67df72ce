package progress_test

import (
	"testing"
	"time"

	"keepsake/internal/keepsake"
	"keepsake/internal/progress"
)

func day(d int) time.Time {
	return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestStreakDays(t *testing.T) {
	tests := []struct {
		name  string
		times []time.Time
		want  int
	}{
		{name: "no activity", want: 0},
		{name: "single day", times: []time.Time{day(0)}, want: 1},
		{name: "gap ends streak", times: []time.Time{day(0), day(-1), day(-2), day(-4)}, want: 3},
		{name: "unsorted input", times: []time.Time{day(-2), day(0), day(-4), day(-1)}, want: 3},
		{name: "same day counted once", times: []time.Time{day(0), day(0).Add(-time.Hour), day(-1)}, want: 2},
		{name: "capped at seven", times: []time.Time{day(0), day(-1), day(-2), day(-3), day(-4), day(-5), day(-6), day(-7), day(-8)}, want: 7},
		{name: "streak ends at latest activity", times: []time.Time{day(-10), day(-11)}, want: 2},
		{name: "zero times ignored", times: []time.Time{{}, day(0)}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progress.StreakDays(tt.times, nil); got != tt.want {
				t.Errorf("StreakDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreakDays_CalendarDaysInLocation(t *testing.T) {
	// 23:30 and 00:30 UTC are one calendar day apart in UTC but fall on the
	// same day at UTC-5.
	late := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	early := time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC)
	times := []time.Time{late, early}

	if got := progress.StreakDays(times, time.UTC); got != 2 {
		t.Errorf("StreakDays(UTC) = %d, want 2", got)
	}
	if got := progress.StreakDays(times, time.FixedZone("UTC-5", -5*3600)); got != 1 {
		t.Errorf("StreakDays(UTC-5) = %d, want 1", got)
	}
}

func TestOverallRate(t *testing.T) {
	tests := []struct {
		rates []int
		want  int
	}{
		{rates: []int{100, 0, 0}, want: 100},
		{rates: []int{100, 50, 0}, want: 75},
		{rates: []int{33, 33, 34}, want: 33},
		{rates: []int{0, 0, 0}, want: 0},
		{rates: []int{67, 50}, want: 59},
	}
	for _, tt := range tests {
		if got := progress.OverallRate(tt.rates...); got != tt.want {
			t.Errorf("OverallRate(%v) = %d, want %d", tt.rates, got, tt.want)
		}
	}
}

func fullAnswers() map[string]string {
	return map[string]string{"1": "a", "2": "b", "3": "c", "4": "d", "5": "e"}
}

func TestCompute_CompletionExcludesZeroRates(t *testing.T) {
	ex := progress.Exercises{
		Photos: []keepsake.PhotoAnalysis{
			{Answers: fullAnswers()},
			{Answers: fullAnswers()},
			{Answers: fullAnswers()},
		},
		Characters: []keepsake.CharacterExploration{{CharacterName: "Opa", Completed: false}},
	}

	st := progress.Compute(ex, nil)
	if st.Completion.Photo != 100 {
		t.Errorf("Completion.Photo = %d, want 100", st.Completion.Photo)
	}
	if st.Completion.Character != 0 {
		t.Errorf("Completion.Character = %d, want 0", st.Completion.Character)
	}
	if st.Overall.CompletionRate != 100 {
		t.Errorf("Overall.CompletionRate = %d, want 100", st.Overall.CompletionRate)
	}
}

func TestCompute_PhotoCompletionCountsAnsweredKeys(t *testing.T) {
	ex := progress.Exercises{
		Photos: []keepsake.PhotoAnalysis{
			// Blank answers still count once the question has a key.
			{Answers: map[string]string{"1": "a", "2": "", "3": "", "4": "d", "5": ""}},
			{Answers: map[string]string{"1": "a", "2": "b", "3": "c", "4": "d"}},
		},
	}

	st := progress.Compute(ex, nil)
	if st.Completion.Photo != 50 {
		t.Errorf("Completion.Photo = %d, want 50", st.Completion.Photo)
	}
}

func TestCompute(t *testing.T) {
	ex := progress.Exercises{
		Photos: []keepsake.PhotoAnalysis{
			{Record: keepsake.Record{CreatedAt: day(0)}, Answers: fullAnswers()},
			{Record: keepsake.Record{CreatedAt: day(-1)}, Answers: map[string]string{"1": "four", "2": "abcdef"}},
		},
		Characters: []keepsake.CharacterExploration{
			{Record: keepsake.Record{CreatedAt: day(-2)}, Traits: []string{"kind", "loud", "funny"}, Completed: true},
		},
		Skills: []keepsake.SkillHeritage{
			{Record: keepsake.Record{CreatedAt: day(-5)}, Steps: []string{"a", "b"}},
			{Record: keepsake.Record{CreatedAt: day(-6)}, Completed: true},
			{Record: keepsake.Record{CreatedAt: day(-7)}, Completed: true},
		},
	}

	st := progress.Compute(ex, nil)

	if st.Total != (progress.Totals{Photo: 2, Character: 1, Skill: 3}) {
		t.Errorf("Total = %+v", st.Total)
	}
	if st.Completion != (progress.Completion{Photo: 50, Character: 100, Skill: 67}) {
		t.Errorf("Completion = %+v", st.Completion)
	}
	if st.Overall.CompletionRate != 72 {
		t.Errorf("Overall.CompletionRate = %d, want 72", st.Overall.CompletionRate)
	}
	if st.Overall.StreakDays != 3 {
		t.Errorf("Overall.StreakDays = %d, want 3", st.Overall.StreakDays)
	}
	if st.Overall.TotalExercises != 6 || st.Overall.TotalTimeSpent != 60 {
		t.Errorf("Overall = %+v", st.Overall)
	}
	// 7 answers + 3 traits + 2 steps.
	if st.Insights.TotalInsights != 12 {
		t.Errorf("TotalInsights = %d, want 12", st.Insights.TotalInsights)
	}
	// Five one-letter answers plus "four" and "abcdef": 15 runes over 7 answers.
	if st.Insights.AvgAnswerLength != 2 {
		t.Errorf("AvgAnswerLength = %d, want 2", st.Insights.AvgAnswerLength)
	}
}

func TestAnalyzeAnswers(t *testing.T) {
	st := progress.AnalyzeAnswers(map[string]string{
		"1": "We love that warm summer, I miss it",
		"2": "  short   ",
		"3": "A precious day I remember with joy",
	})

	if st.TotalQuestions != 5 || st.AnsweredQuestions != 3 || st.CompletionRate != 60 {
		t.Errorf("counts = %+v", st)
	}
	if st.MeaningfulAnswers != 2 || st.ValueDensity != 40 {
		t.Errorf("meaningful = %d, density = %d", st.MeaningfulAnswers, st.ValueDensity)
	}
	// love, warm, miss + precious, remember, joy
	if st.EmotionScore != 6 || st.EmotionLevel != "strong" {
		t.Errorf("emotion = %d (%s), want 6 (strong)", st.EmotionScore, st.EmotionLevel)
	}

	if got := progress.AnalyzeAnswers(map[string]string{"1": "Happy and sad and LOVE"}); got.EmotionLevel != "medium" {
		t.Errorf("EmotionLevel = %q, want medium", got.EmotionLevel)
	}
	if got := progress.AnalyzeAnswers(nil); got.EmotionLevel != "normal" || got.CompletionRate != 0 {
		t.Errorf("empty analysis = %+v", got)
	}
}
