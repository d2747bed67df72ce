package progress

import (
	"math"
	"strings"

	"keepsake/internal/keepsake"
)

// PhotoQuestions is the number of guided questions in a photo analysis.
const PhotoQuestions = 5

// meaningfulLength is the trimmed length an answer must exceed to count as
// meaningful.
const meaningfulLength = 10

// emotionWords are matched case-insensitively; each word counts at most once
// per answer.
var emotionWords = []string{
	"love", "miss", "moved", "warm", "happy",
	"joy", "sad", "remember", "precious", "grateful",
}

// AnalyzeAnswers summarizes the answers of one photo analysis.
func AnalyzeAnswers(answers map[string]string) keepsake.PhotoStats {
	st := keepsake.PhotoStats{
		TotalQuestions:    PhotoQuestions,
		AnsweredQuestions: len(answers),
	}
	for _, a := range answers {
		if len([]rune(strings.TrimSpace(a))) > meaningfulLength {
			st.MeaningfulAnswers++
		}
		lower := strings.ToLower(a)
		for _, w := range emotionWords {
			if strings.Contains(lower, w) {
				st.EmotionScore++
			}
		}
	}

	st.CompletionRate = percent(st.AnsweredQuestions, PhotoQuestions)
	st.ValueDensity = percent(st.MeaningfulAnswers, PhotoQuestions)
	switch {
	case st.EmotionScore > 5:
		st.EmotionLevel = "strong"
	case st.EmotionScore > 2:
		st.EmotionLevel = "medium"
	default:
		st.EmotionLevel = "normal"
	}
	return st
}

func percent(n, of int) int {
	return int(math.Round(float64(n) / float64(of) * 100))
}
