package analytics

import (
	"context"
	"sync"
	"time"

	apperrors "recruit-assistant/errors"
	"recruit-assistant/questions"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder turns inbound chat messages into question events and writes them
// in the background. Write failures are logged and never reach the caller.
type Recorder struct {
	store       Store
	logger      *zap.Logger
	now         func() time.Time
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	wg          sync.WaitGroup
}

type RecorderOption func(*Recorder)

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// WithRetry sets the number of write attempts and the base delay between them.
func WithRetry(attempts int, delay time.Duration) RecorderOption {
	return func(r *Recorder) {
		if attempts > 0 {
			r.maxAttempts = attempts
		}
		r.retryDelay = delay
	}
}

// WithWriteTimeout bounds each write attempt.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.timeout = d }
}

func NewRecorder(store Store, logger *zap.Logger, opts ...RecorderOption) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{
		store:       store,
		logger:      logger,
		now:         time.Now,
		timeout:     10 * time.Second,
		maxAttempts: 3,
		retryDelay:  time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewEvent categorizes a question into an event stamped with the current time.
func (r *Recorder) NewEvent(question string) Event {
	category := questions.Categorize(question)
	return Event{
		ID:        uuid.New(),
		Question:  question,
		Category:  category.Name,
		Icon:      category.Icon,
		Timestamp: r.now().UTC(),
	}
}

// Track records the message if it is an analyzable question. It returns
// immediately; the write runs on its own context so cancelling the request
// does not cancel it. The return value reports whether a write was started.
func (r *Recorder) Track(message string) bool {
	if r == nil || r.store == nil || !questions.IsQuestion(message) {
		return false
	}
	event := r.NewEvent(message)

	r.wg.Add(1)
	go func(event Event) {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("Question analytics panicked", zap.Any("panic", rec))
			}
		}()

		var err error
		for attempt := range r.maxAttempts {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			err = r.store.Record(ctx, event)
			cancel()

			if err == nil {
				r.logger.Debug("Recorded question",
					zap.String("category", event.Category),
					zap.String("event_id", event.ID.String()))
				return
			}

			if attempt < r.maxAttempts-1 {
				time.Sleep(r.retryDelay * time.Duration(attempt+1))
			}
		}

		err = apperrors.WrapCause(apperrors.ErrAnalytics, err, "record question event")
		r.logger.Error("Question analytics failed after retries",
			zap.Error(err),
			zap.String("category", event.Category),
			zap.Int("attempts", r.maxAttempts))
	}(event)

	return true
}

// Wait blocks until every in-flight write has finished.
func (r *Recorder) Wait() {
	if r != nil {
		r.wg.Wait()
	}
}
