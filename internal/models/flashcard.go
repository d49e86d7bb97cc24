package models

import "strings"

type Flashcard struct {
	ID         string     `json:"id"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Category   string     `json:"category,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

func (c Flashcard) Valid() bool {
	return strings.TrimSpace(c.Question) != "" && strings.TrimSpace(c.Answer) != ""
}

type KeyRequest struct {
	Key string `json:"key"`
}
