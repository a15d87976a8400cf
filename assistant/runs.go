package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "recruit-assistant/errors"

	"go.uber.org/zap"
)

// Run statuses reported by the API.
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusCancelling     = "cancelling"
	StatusCompleted      = "completed"
	StatusRequiresAction = "requires_action"
	StatusFailed         = "failed"
	StatusCancelled      = "cancelled"
	StatusExpired        = "expired"
	StatusIncomplete     = "incomplete"
	statusTimedOut       = "timed_out"
)

// Answer is the assistant's raw reply to one user turn.
type Answer struct {
	Text     string
	ThreadID string
	RunID    string
}

type run struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type messageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// pending reports whether the run may still change status. requires_action
// counts as terminal: this assistant defines no function tools.
func pending(status string) bool {
	switch status {
	case StatusQueued, StatusInProgress, StatusCancelling:
		return true
	}
	return false
}

// Answer posts the question to the thread (creating one when threadID is
// empty), runs the assistant to completion and returns the newest reply.
func (c *Client) Answer(ctx context.Context, question, threadID string) (Answer, error) {
	if !c.Configured() {
		return Answer{}, apperrors.WrapError(apperrors.ErrConfiguration, "API key not configured")
	}

	assistantID, err := c.EnsureAssistant(ctx)
	if err != nil {
		return Answer{}, err
	}

	if threadID == "" {
		var thread object
		if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &thread); err != nil {
			return Answer{}, fmt.Errorf("create thread: %w", err)
		}
		threadID = thread.ID
	}
	answer := Answer{ThreadID: threadID}

	threadPath := "/threads/" + url.PathEscape(threadID)
	msg := map[string]string{"role": "user", "content": question}
	if err := c.do(ctx, http.MethodPost, threadPath+"/messages", msg, nil); err != nil {
		return answer, fmt.Errorf("add message: %w", err)
	}

	r, err := c.runToCompletion(ctx, threadPath, assistantID)
	if r.ID != "" {
		answer.RunID = r.ID
	}
	if err != nil {
		return answer, err
	}
	if r.Status != StatusCompleted {
		fields := []zap.Field{zap.String("thread_id", threadID), zap.String("status", r.Status)}
		if r.LastError != nil {
			fields = append(fields, zap.String("last_error", r.LastError.Message))
		}
		c.logger.Error("Run failed with status", fields...)
		return answer, apperrors.WrapErrorf(apperrors.ErrUpstream, "Run status: %s", r.Status)
	}

	var messages messageList
	if err := c.do(ctx, http.MethodGet, threadPath+"/messages?order=desc&limit=1", nil, &messages); err != nil {
		return answer, fmt.Errorf("list messages: %w", err)
	}
	if len(messages.Data) > 0 {
		for _, part := range messages.Data[0].Content {
			if part.Type == "text" {
				answer.Text = part.Text.Value
				return answer, nil
			}
		}
	}
	return answer, apperrors.WrapError(apperrors.ErrUpstream, "assistant returned no text")
}

// runToCompletion starts a run and polls it with exponential backoff until
// it leaves the pending states or the run timeout elapses.
func (c *Client) runToCompletion(ctx context.Context, threadPath, assistantID string) (run, error) {
	timeout := c.cfg.AssistantRunTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var r run
	if err := c.do(ctx, http.MethodPost, threadPath+"/runs", map[string]string{"assistant_id": assistantID}, &r); err != nil {
		return r, fmt.Errorf("create run: %w", err)
	}

	interval := c.pollInitial
	polls := 0
	for pending(r.Status) {
		if err := sleep(ctx, interval); err != nil {
			c.cancelRun(threadPath, r.ID)
			c.logger.Warn("Run did not finish in time",
				zap.String("run_id", r.ID),
				zap.Duration("timeout", timeout),
				zap.Int("polls", polls))
			r.Status = statusTimedOut
			return r, nil
		}
		interval = min(interval*2, c.pollMax)
		polls++

		if err := c.do(ctx, http.MethodGet, threadPath+"/runs/"+url.PathEscape(r.ID), nil, &r); err != nil {
			if ctx.Err() != nil {
				continue
			}
			return r, fmt.Errorf("poll run: %w", err)
		}
	}

	c.logger.Debug("Run finished", zap.String("run_id", r.ID), zap.String("status", r.Status), zap.Int("polls", polls))
	return r, nil
}

// cancelRun asks the API to stop a run we gave up on. Best effort.
func (c *Client) cancelRun(threadPath, runID string) {
	if runID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.do(ctx, http.MethodPost, threadPath+"/runs/"+url.PathEscape(runID)+"/cancel", struct{}{}, nil); err != nil {
		c.logger.Warn("Failed to cancel run", zap.String("run_id", runID), zap.Error(err))
	}
}
