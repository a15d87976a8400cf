package chat

import (
	"context"
	"strings"
	"time"

	"recruit-assistant/assistant"
	"recruit-assistant/cache"
	apperrors "recruit-assistant/errors"

	"go.uber.org/zap"
)

// Assistant answers a question within a conversation thread.
type Assistant interface {
	Configured() bool
	Answer(ctx context.Context, question, threadID string) (assistant.Answer, error)
}

// Tracker records inbound questions without blocking the caller.
type Tracker interface {
	Track(message string) bool
}

type Request struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId,omitempty"`
}

type Response struct {
	Reply        string `json:"reply"`
	ThreadID     string `json:"threadId"`
	ScrollToForm bool   `json:"scrollToForm"`
	Cached       bool   `json:"cached"`
}

// Service answers chat messages, serving repeated and paraphrased questions
// from the similarity cache.
type Service struct {
	assistant Assistant
	cache     *cache.SimilarityCache
	tracker   Tracker
	logger    *zap.Logger
}

func NewService(a Assistant, c *cache.SimilarityCache, tracker Tracker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		assistant: a,
		cache:     c,
		tracker:   tracker,
		logger:    logger,
	}
}

// Ask handles one user turn. Analytics are dispatched before the cache is
// consulted so cached answers are still counted.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	if s.assistant == nil || !s.assistant.Configured() {
		return Response{}, apperrors.WrapError(apperrors.ErrConfiguration, "API key not configured")
	}
	if strings.TrimSpace(req.Message) == "" {
		return Response{}, apperrors.WrapError(apperrors.ErrInvalidInput, "Message is required")
	}

	if s.tracker != nil {
		s.tracker.Track(req.Message)
	}

	if s.cache != nil {
		if entry, ok := s.cache.Lookup(req.Message); ok {
			s.logger.Debug("Serving cached reply",
				zap.String("key", entry.Key),
				zap.String("thread_id", entry.ThreadID))
			return Response{
				Reply:        entry.Reply,
				ThreadID:     entry.ThreadID,
				ScrollToForm: entry.ScrollToForm,
				Cached:       true,
			}, nil
		}
	}

	start := time.Now()
	answer, err := s.assistant.Answer(ctx, req.Message, req.ThreadID)
	if err != nil {
		return Response{}, err
	}
	reply, scroll := assistant.CleanReply(answer.Text)

	s.logger.Info("Assistant replied",
		zap.String("thread_id", answer.ThreadID),
		zap.String("run_id", answer.RunID),
		zap.Bool("scroll_to_form", scroll),
		zap.Duration("duration", time.Since(start)))

	if s.cache != nil {
		s.cache.Insert(cache.Entry{
			Key:          req.Message,
			Reply:        reply,
			ThreadID:     answer.ThreadID,
			ScrollToForm: scroll,
		})
	}

	return Response{
		Reply:        reply,
		ThreadID:     answer.ThreadID,
		ScrollToForm: scroll,
	}, nil
}

// CacheStats reports the answer cache's counters.
func (s *Service) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stats()
}
