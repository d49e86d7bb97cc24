package models

import "strings"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty lower-cases s and reports whether it names a known level.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	default:
		return "", false
	}
}

// MCQ is a multiple-choice question. Answer must be one of Options.
type MCQ struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Options     []string   `json:"options"`
	Difficulty  Difficulty `json:"difficulty"`
	Explanation string     `json:"explanation,omitempty"`
	Category    string     `json:"category,omitempty"`
}

func (q MCQ) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

func (q MCQ) Valid() bool {
	return strings.TrimSpace(q.Question) != "" && q.HasOption(q.Answer)
}

type QuizRating string

const (
	RatingExcellent QuizRating = "excellent"
	RatingGood      QuizRating = "good"
	RatingReview    QuizRating = "review"
)

// RatingFor maps a percentage score to the completion message bucket.
func RatingFor(percent float64) QuizRating {
	switch {
	case percent >= 80:
		return RatingExcellent
	case percent >= 60:
		return RatingGood
	default:
		return RatingReview
	}
}

type QuizResult struct {
	Score    int        `json:"score"`
	Total    int        `json:"total"`
	Answered int        `json:"answered"`
	Accuracy float64    `json:"accuracy"`
	Rating   QuizRating `json:"rating"`
}

type AnswerRequest struct {
	Option string `json:"option"`
}

type JumpRequest struct {
	Index int `json:"index"`
}
