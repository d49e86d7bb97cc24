package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"quillium-client/internal/models"
	"quillium-client/internal/upload"
)

var (
	ErrBusy   = errors.New("an upload is already queued or running")
	ErrNoFile = errors.New("no file has been uploaded yet")
)

// Uploader is the page-level upload flow the runner drives.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (*models.Document, error)
	Reprocess(ctx context.Context) (*models.Document, error)
	HasLastFile() bool
	SubscribeProgress(fn func(percent int)) (unsubscribe func())
}

// Publisher fans events out to connected clients.
type Publisher interface {
	Publish(msg models.WSMessage)
}

type job struct {
	ID        uuid.UUID
	Name      string
	Data      []byte
	Reprocess bool
}

// Runner executes uploads off the request goroutine, one at a time, and
// reports their progress as events.
type Runner struct {
	uploader  Uploader
	publisher Publisher
	timeout   time.Duration
	logger    *slog.Logger

	jobs     chan job
	busy     atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewRunner(uploader Uploader, publisher Publisher, timeout time.Duration, logger *slog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		uploader:  uploader,
		publisher: publisher,
		timeout:   timeout,
		logger:    logger,
		jobs:      make(chan job, 1),
		stopChan:  make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (r *Runner) Start() {
	r.wg.Add(1)
	go r.worker()
	r.logger.Info("upload runner started")
}

// Stop cancels the running upload and waits for the worker to exit.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		r.cancel()
	})
	r.wg.Wait()
}

// Submit queues a new file. Only one upload may be queued or running.
func (r *Runner) Submit(name string, data []byte) (uuid.UUID, error) {
	return r.enqueue(job{Name: name, Data: data})
}

// SubmitReprocess queues a re-run of the last uploaded file.
func (r *Runner) SubmitReprocess() (uuid.UUID, error) {
	if !r.uploader.HasLastFile() {
		return uuid.Nil, ErrNoFile
	}
	return r.enqueue(job{Reprocess: true})
}

func (r *Runner) Busy() bool { return r.busy.Load() }

func (r *Runner) enqueue(j job) (uuid.UUID, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return uuid.Nil, ErrBusy
	}
	j.ID = uuid.New()
	r.jobs <- j
	return j.ID, nil
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stopChan:
			r.logger.Info("upload runner shutting down")
			return
		case j := <-r.jobs:
			r.process(j)
			r.busy.Store(false)
		}
	}
}

func (r *Runner) process(j job) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	unsubscribe := r.uploader.SubscribeProgress(func(percent int) {
		r.publisher.Publish(models.WSMessage{
			Type:    models.EventUploadProgress,
			Payload: models.UploadProgress{JobID: j.ID, Percent: percent},
		})
	})
	defer unsubscribe()

	r.logger.Info("processing upload", slog.String("job_id", j.ID.String()), slog.Bool("reprocess", j.Reprocess))

	var (
		doc *models.Document
		err error
	)
	if j.Reprocess {
		doc, err = r.uploader.Reprocess(ctx)
	} else {
		doc, err = r.uploader.Upload(ctx, j.Name, j.Data)
	}

	if err != nil {
		r.logger.Warn("upload job failed", slog.String("job_id", j.ID.String()), slog.String("error", err.Error()))
		r.publisher.Publish(models.WSMessage{
			Type: models.EventUploadFailed,
			Payload: models.UploadFailed{
				JobID:        j.ID,
				ErrorCode:    ErrorCode(err),
				ErrorMessage: ErrorMessage(err),
			},
		})
		return
	}

	r.publisher.Publish(models.WSMessage{
		Type: models.EventUploadCompleted,
		Payload: models.UploadCompleted{
			JobID:     j.ID,
			Questions: len(doc.MCQs),
			Cards:     len(doc.Flashcards),
			PageCount: doc.PageCount,
		},
	})
	r.logger.Info("upload job completed", slog.String("job_id", j.ID.String()))
}

// ErrorCode classifies an upload error for clients.
func ErrorCode(err error) string {
	var verr *upload.ValidationError
	var rerr *upload.RemoteError
	switch {
	case errors.As(err, &verr):
		return "VALIDATION_ERROR"
	case errors.As(err, &rerr):
		return "PROCESSING_FAILED"
	case errors.Is(err, upload.ErrMalformedResponse):
		return "BAD_RESPONSE"
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	default:
		return "UPLOAD_FAILED"
	}
}

// ErrorMessage is the single user-facing message for a failed upload.
func ErrorMessage(err error) string {
	var verr *upload.ValidationError
	var rerr *upload.RemoteError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &rerr):
		return rerr.Message
	default:
		return "Failed to process PDF. Please try again."
	}
}
