package navigation

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillium-client/internal/events"
	"quillium-client/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func recordViews(c *Controller) *[]models.View {
	var got []models.View
	c.Subscribe(func(e models.NavigationEvent) { got = append(got, e.View) })
	return &got
}

func TestController_StartsAtHome(t *testing.T) {
	c := NewController(false, testLogger())
	assert.Equal(t, models.ViewHome, c.View())
}

func TestController_UploadFlow(t *testing.T) {
	c := NewController(false, testLogger())
	got := recordViews(c)

	assert.Equal(t, models.ViewUpload, c.GetStarted())
	assert.Equal(t, models.ViewUpload, c.CompleteUpload(false), "no questions, stay on upload")
	assert.Equal(t, models.ViewQuiz, c.CompleteUpload(true))
	assert.Equal(t, models.ViewUpload, c.Back())

	assert.Equal(t, []models.View{models.ViewUpload, models.ViewQuiz, models.ViewUpload}, *got)
}

func TestController_GetStartedOnlyFromHome(t *testing.T) {
	c := NewController(true, testLogger())
	_, err := c.Navigate("progress")
	require.NoError(t, err)
	assert.Equal(t, models.ViewProgress, c.GetStarted())
}

func TestController_BackFromHomeAndUploadIsNoop(t *testing.T) {
	c := NewController(false, testLogger())
	assert.Equal(t, models.ViewHome, c.Back())
	c.GetStarted()
	assert.Equal(t, models.ViewUpload, c.Back())
}

func TestController_NavigateGuard(t *testing.T) {
	tests := []struct {
		name    string
		hasData bool
		target  string
		want    models.View
	}{
		{"quiz without data", false, "quiz", models.ViewHome},
		{"flashcards without data", false, "flashcards", models.ViewHome},
		{"progress without data", false, "progress", models.ViewProgress},
		{"upload without data", false, "upload", models.ViewUpload},
		{"quiz with data", true, "quiz", models.ViewQuiz},
		{"flashcards with data", true, "flashcards", models.ViewFlashcards},
		{"legacy hero alias", true, "hero", models.ViewHome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(tt.hasData, testLogger())
			got, err := c.Navigate(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, c.View())
		})
	}
}

func TestController_NavigateUnknownView(t *testing.T) {
	c := NewController(true, testLogger())
	got := recordViews(c)

	view, err := c.Navigate("settings")
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.Equal(t, models.ViewHome, view)
	assert.Empty(t, *got)
}

func TestController_SameViewDoesNotBroadcast(t *testing.T) {
	c := NewController(true, testLogger())
	got := recordViews(c)

	_, _ = c.Navigate("progress")
	_, _ = c.Navigate("progress")
	assert.Equal(t, []models.View{models.ViewProgress}, *got)
}

func TestController_ResetForcesUpload(t *testing.T) {
	c := NewController(true, testLogger())
	_, _ = c.Navigate("flashcards")
	c.SetHasData(false)
	assert.Equal(t, models.ViewUpload, c.Reset())

	view, err := c.Navigate("quiz")
	require.NoError(t, err)
	assert.Equal(t, models.ViewUpload, view)
}

type fakeData struct {
	subject *events.Subject[models.DataUpdatedEvent]
}

func (f fakeData) SubscribeDataUpdated(fn func(models.DataUpdatedEvent)) func() {
	return f.subject.Subscribe(fn)
}

func TestHeader_FollowsEvents(t *testing.T) {
	c := NewController(false, testLogger())
	data := fakeData{subject: events.NewSubject[models.DataUpdatedEvent]()}
	h := NewHeader(c, data)
	defer h.Close()

	enabled := func() map[models.View]bool {
		m := map[models.View]bool{}
		for _, it := range h.Items() {
			m[it.View] = it.Enabled
		}
		return m
	}
	assert.False(t, enabled()[models.ViewQuiz])
	assert.True(t, enabled()[models.ViewProgress])

	data.subject.Publish(models.DataUpdatedEvent{HasData: true})
	assert.True(t, enabled()[models.ViewQuiz])

	c.GetStarted()
	assert.Equal(t, models.ViewUpload, h.Current())
}

func TestHeader_ClickGoesThroughController(t *testing.T) {
	c := NewController(true, testLogger())
	h := NewHeader(c, fakeData{subject: events.NewSubject[models.DataUpdatedEvent]()})
	defer h.Close()

	view, err := h.Click(models.ViewFlashcards)
	require.NoError(t, err)
	assert.Equal(t, models.ViewFlashcards, view)
	assert.Equal(t, models.ViewFlashcards, c.View())
	assert.Equal(t, models.ViewFlashcards, h.Current())

	for _, it := range h.Items() {
		assert.Equal(t, it.View == models.ViewFlashcards, it.Active, it.View)
	}
}

func TestHeader_CloseStopsUpdates(t *testing.T) {
	c := NewController(true, testLogger())
	h := NewHeader(c, fakeData{subject: events.NewSubject[models.DataUpdatedEvent]()})
	h.Close()

	c.GetStarted()
	assert.Equal(t, models.ViewHome, h.Current())
}
