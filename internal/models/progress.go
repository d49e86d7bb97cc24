package models

import "math"

// Progress holds learning statistics accumulated across sessions.
// CorrectAnswers + IncorrectAnswers == TotalQuestions at all times.
type Progress struct {
	TotalQuestions    int `json:"totalQuestions"`
	CorrectAnswers    int `json:"correctAnswers"`
	IncorrectAnswers  int `json:"incorrectAnswers"`
	QuizzesTaken      int `json:"quizzesTaken"`
	FlashcardsStudied int `json:"flashcardsStudied"`
}

func (p Progress) Valid() bool {
	if p.TotalQuestions < 0 || p.CorrectAnswers < 0 || p.IncorrectAnswers < 0 ||
		p.QuizzesTaken < 0 || p.FlashcardsStudied < 0 {
		return false
	}
	return p.CorrectAnswers+p.IncorrectAnswers == p.TotalQuestions
}

func (p *Progress) RecordAnswer(correct bool) {
	p.TotalQuestions++
	if correct {
		p.CorrectAnswers++
	} else {
		p.IncorrectAnswers++
	}
}

func (p *Progress) RecordQuizCompleted() { p.QuizzesTaken++ }

func (p *Progress) RecordFlashcardStudied() { p.FlashcardsStudied++ }

// Accuracy returns correct/total as a percentage; 0 when total is 0.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// RoundTenth rounds to one decimal place for display.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
