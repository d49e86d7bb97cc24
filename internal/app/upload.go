package app

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"

	"quillium-client/internal/models"
	"quillium-client/internal/upload"
)

// Upload sends a file for processing with the selected language. Only one
// upload may run at a time. On success the document replaces the stored one
// and the view moves on to the quiz.
func (a *App) Upload(ctx context.Context, name string, data []byte) (*models.Document, error) {
	if !a.uploading.CompareAndSwap(false, true) {
		return nil, ErrUploadInProgress
	}
	defer a.uploading.Store(false)

	a.setProgress(0)
	if err := validateLocal(name, data); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.lastFile = &File{Name: name, Data: data}
	a.mu.Unlock()

	return a.submit(ctx, name, data)
}

// Reprocess submits the last uploaded file again with the current language.
func (a *App) Reprocess(ctx context.Context) (*models.Document, error) {
	a.mu.Lock()
	f := a.lastFile
	a.mu.Unlock()
	if f == nil {
		return nil, ErrNoFile
	}
	if !a.uploading.CompareAndSwap(false, true) {
		return nil, ErrUploadInProgress
	}
	defer a.uploading.Store(false)

	a.setProgress(0)
	return a.submit(ctx, f.Name, f.Data)
}

func (a *App) submit(ctx context.Context, name string, data []byte) (*models.Document, error) {
	lang := a.store.Language()
	a.setProgress(10)

	doc, err := a.gateway.Submit(ctx, name, bytes.NewReader(data), int64(len(data)), lang, a.opts.QuestionCount)
	if err != nil {
		a.logger.Error("upload failed", slog.String("file", name), slog.String("error", err.Error()))
		a.setProgress(0)
		return nil, err
	}
	a.setProgress(80)

	doc.Language = lang
	a.warnIfUntranslated(lang, doc)

	if err := a.store.SaveDocument(ctx, doc); err != nil {
		a.logger.Warn("processed document kept in memory only", slog.String("error", err.Error()))
	}
	if err := a.store.SaveLanguage(ctx, lang); err != nil {
		a.logger.Warn("language not persisted", slog.String("error", err.Error()))
	}
	a.setProgress(100)
	a.nav.CompleteUpload(doc.HasData())
	return doc.Clone(), nil
}

var englishOnly = regexp.MustCompile(`^[A-Za-z0-9\s.,!?'"()\-]*$`)

// warnIfUntranslated logs when a non-English request came back with a first
// question that looks like plain English.
func (a *App) warnIfUntranslated(lang string, doc *models.Document) {
	if lang == "English" || len(doc.MCQs) == 0 {
		return
	}
	first := doc.MCQs[0].Question
	if englishOnly.MatchString(first) {
		a.logger.Warn("questions appear to be in English despite requested language",
			slog.String("language", lang),
			slog.String("first_question", first),
		)
		return
	}
	a.logger.Debug("questions appear translated", slog.String("language", lang))
}

func validateLocal(name string, data []byte) error {
	head, err := upload.ReadHead(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return upload.Validate(name, int64(len(data)), head)
}

func (a *App) setProgress(p int) {
	a.uploadProgress.Store(int32(p))
	a.progressEvents.Publish(p)
}

// HasLastFile reports whether there is a file to reprocess.
func (a *App) HasLastFile() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastFile != nil
}

func (a *App) UploadProgress() int { return int(a.uploadProgress.Load()) }

func (a *App) Uploading() bool { return a.uploading.Load() }

// SubscribeProgress reports upload progress percentages as they change.
func (a *App) SubscribeProgress(fn func(percent int)) (unsubscribe func()) {
	return a.progressEvents.Subscribe(fn)
}
