// Package dashboard turns the learning counters into the progress screen.
package dashboard

import (
	"fmt"

	"quillium-client/internal/models"
)

const (
	flashcardMasterThreshold   = 10
	consistentLearnerThreshold = 3
)

type Stat struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type Achievement struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type Summary struct {
	Progress     models.Progress `json:"progress"`
	Accuracy     float64         `json:"accuracy"`
	Stats        []Stat          `json:"stats"`
	Achievements []Achievement   `json:"achievements"`
	Unlocked     int             `json:"unlocked"`
}

func Summarize(p models.Progress) Summary {
	raw := models.Accuracy(p.CorrectAnswers, p.TotalQuestions)
	accuracy := models.RoundTenth(raw)

	s := Summary{
		Progress: p,
		Accuracy: accuracy,
		Stats: []Stat{
			{Key: "total_questions", Label: "Total Questions", Value: fmt.Sprint(p.TotalQuestions)},
			{Key: "correct_answers", Label: "Correct Answers", Value: fmt.Sprint(p.CorrectAnswers)},
			{Key: "accuracy", Label: "Accuracy", Value: fmt.Sprintf("%.1f%%", accuracy)},
			{Key: "flashcards_studied", Label: "Flashcards Studied", Value: fmt.Sprint(p.FlashcardsStudied)},
		},
		Achievements: []Achievement{
			{
				Key:         "first_quiz",
				Title:       "First Quiz",
				Description: "Complete your first quiz",
				Unlocked:    p.QuizzesTaken > 0,
			},
			{
				Key:         "perfect_score",
				Title:       "Perfect Score",
				Description: "Achieve 100% accuracy in a quiz",
				Unlocked:    p.TotalQuestions > 0 && p.CorrectAnswers == p.TotalQuestions,
			},
			{
				Key:         "flashcard_master",
				Title:       "Flashcard Master",
				Description: fmt.Sprintf("Study %d+ flashcards", flashcardMasterThreshold),
				Unlocked:    p.FlashcardsStudied >= flashcardMasterThreshold,
			},
			{
				Key:         "consistent_learner",
				Title:       "Consistent Learner",
				Description: fmt.Sprintf("Complete %d+ quizzes", consistentLearnerThreshold),
				Unlocked:    p.QuizzesTaken >= consistentLearnerThreshold,
			},
		},
	}
	for _, a := range s.Achievements {
		if a.Unlocked {
			s.Unlocked++
		}
	}
	return s
}
