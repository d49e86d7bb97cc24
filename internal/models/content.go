package models

// Document is the processed result of the last successful upload.
type Document struct {
	Text       string      `json:"text"`
	MCQs       []MCQ       `json:"mcqs"`
	Flashcards []Flashcard `json:"flashcards"`
	PageCount  int         `json:"pageCount"`
	Language   string      `json:"language"`
}

// HasData reports whether the document can drive a quiz.
func (d *Document) HasData() bool {
	return d != nil && len(d.MCQs) > 0
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.MCQs = make([]MCQ, len(d.MCQs))
	for i, q := range d.MCQs {
		q.Options = append([]string(nil), q.Options...)
		c.MCQs[i] = q
	}
	c.Flashcards = append([]Flashcard(nil), d.Flashcards...)
	return &c
}

// ProcessResponse is the wire shape returned by the processing service.
type ProcessResponse struct {
	Text       string      `json:"text"`
	MCQs       []MCQ       `json:"mcqs"`
	Flashcards []Flashcard `json:"flashcards"`
	PageCount  int         `json:"page_count"`
}

type FileInfo struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Pages int    `json:"pages"`
}

type HealthStatus struct {
	Status           string `json:"status"`
	TranslatorLoaded bool   `json:"translator_loaded"`
	ModelCacheExists bool   `json:"model_cache_exists"`
}
