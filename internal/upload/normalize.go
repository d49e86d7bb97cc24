package upload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"quillium-client/internal/models"
)

const defaultText = "Text extracted from PDF"

var ErrMalformedResponse = errors.New("malformed response from processing service")

type wireMCQ struct {
	ID          json.RawMessage `json:"id"`
	Question    string          `json:"question"`
	Answer      string          `json:"answer"`
	Options     []string        `json:"options"`
	Difficulty  string          `json:"difficulty"`
	Explanation string          `json:"explanation"`
	Category    string          `json:"category"`
}

type wireFlashcard struct {
	ID         json.RawMessage `json:"id"`
	Question   string          `json:"question"`
	Answer     string          `json:"answer"`
	Category   string          `json:"category"`
	Difficulty string          `json:"difficulty"`
}

type wireResponse struct {
	Text       *string         `json:"text"`
	MCQs       []wireMCQ       `json:"mcqs"`
	Flashcards []wireFlashcard `json:"flashcards"`
	PageCount  *int            `json:"page_count"`
}

// Normalize decodes a processing-service response into a Document. Missing
// fields get defaults, and questions or cards that cannot be rendered are
// dropped.
func Normalize(body []byte, language string) (*models.Document, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedResponse
	}
	var wire wireResponse
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	doc := &models.Document{
		Text:       defaultText,
		MCQs:       make([]models.MCQ, 0, len(wire.MCQs)),
		Flashcards: make([]models.Flashcard, 0, len(wire.Flashcards)),
		PageCount:  1,
		Language:   language,
	}
	if wire.Text != nil && strings.TrimSpace(*wire.Text) != "" {
		doc.Text = *wire.Text
	}
	if wire.PageCount != nil && *wire.PageCount > 0 {
		doc.PageCount = *wire.PageCount
	}

	for _, w := range wire.MCQs {
		q := models.MCQ{
			ID:          normalizeID(w.ID),
			Question:    strings.TrimSpace(w.Question),
			Answer:      w.Answer,
			Options:     w.Options,
			Explanation: w.Explanation,
			Category:    w.Category,
		}
		if d, ok := models.ParseDifficulty(w.Difficulty); ok {
			q.Difficulty = d
		} else {
			q.Difficulty = models.DifficultyMedium
		}
		if !q.Valid() {
			continue
		}
		doc.MCQs = append(doc.MCQs, q)
	}

	for _, w := range wire.Flashcards {
		c := models.Flashcard{
			ID:       normalizeID(w.ID),
			Question: strings.TrimSpace(w.Question),
			Answer:   strings.TrimSpace(w.Answer),
			Category: w.Category,
		}
		if d, ok := models.ParseDifficulty(w.Difficulty); ok {
			c.Difficulty = d
		}
		if !c.Valid() {
			continue
		}
		doc.Flashcards = append(doc.Flashcards, c)
	}
	return doc, nil
}

// normalizeID accepts string or numeric ids and generates one when absent.
func normalizeID(raw json.RawMessage) string {
	if len(raw) > 0 {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n != "" {
			if i, err := n.Int64(); err == nil {
				return strconv.FormatInt(i, 10)
			}
			return n.String()
		}
	}
	return uuid.NewString()
}
