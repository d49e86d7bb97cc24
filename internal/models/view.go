package models

import (
	"fmt"
	"strings"
)

type View string

const (
	ViewHome       View = "home"
	ViewUpload     View = "upload"
	ViewQuiz       View = "quiz"
	ViewFlashcards View = "flashcards"
	ViewProgress   View = "progress"
)

var views = []View{ViewHome, ViewUpload, ViewQuiz, ViewFlashcards, ViewProgress}

func Views() []View { return append([]View(nil), views...) }

// ParseView accepts the five view names plus the legacy "hero" alias for home.
func ParseView(s string) (View, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "hero" {
		return ViewHome, nil
	}
	for _, v := range views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// RequiresData reports whether the view needs a processed document.
func (v View) RequiresData() bool {
	return v == ViewQuiz || v == ViewFlashcards
}

type NavigateRequest struct {
	View string `json:"view"`
}
