package quiz

import (
	"fmt"
	"time"

	"quillium-client/internal/models"
)

// View is what a quiz screen renders at one moment.
type View struct {
	Index       int                `json:"index"`
	Total       int                `json:"total"`
	Question    string             `json:"question,omitempty"`
	Options     []string           `json:"options,omitempty"`
	Difficulty  models.Difficulty  `json:"difficulty,omitempty"`
	Category    string             `json:"category,omitempty"`
	Selected    string             `json:"selected,omitempty"`
	Answered    bool               `json:"answered"`
	Correct     bool               `json:"correct"`
	Answer      string             `json:"answer,omitempty"`
	Explanation string             `json:"explanation,omitempty"`
	Progress    float64            `json:"progress"`
	AnsweredN   int                `json:"answeredCount"`
	Score       int                `json:"score"`
	TimeLeft    string             `json:"timeLeft"`
	SecondsLeft int                `json:"secondsLeft"`
	Completed   bool               `json:"completed"`
	Reviewing   bool               `json:"reviewing"`
	Result      *models.QuizResult `json:"result,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Index:       s.current,
		Total:       len(s.questions),
		AnsweredN:   len(s.answers),
		Score:       s.score,
		TimeLeft:    FormatClock(s.timeLeft),
		SecondsLeft: int(s.timeLeft / time.Second),
		Completed:   s.completed,
		Reviewing:   s.reviewing,
	}
	if s.completed {
		r := s.resultLocked()
		v.Result = &r
	}
	if len(s.questions) == 0 {
		return v
	}

	q := s.questions[s.current]
	v.Question = q.Question
	v.Options = append([]string(nil), q.Options...)
	v.Difficulty = q.Difficulty
	v.Category = q.Category
	v.Progress = float64(s.current+1) / float64(len(s.questions)) * 100

	selected, answered := s.answers[s.current]
	v.Selected = selected
	v.Answered = answered
	if answered || s.completed {
		v.Correct = answered && selected == q.Answer
		v.Answer = q.Answer
		v.Explanation = q.Explanation
	}
	return v
}

// FormatClock renders d as MM:SS.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
