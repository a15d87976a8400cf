package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"recruit-assistant/config"
	apperrors "recruit-assistant/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxBackoff = 10 * time.Second

// Client talks to the OpenAI Assistants v2 REST API.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
	baseURL    string

	group       singleflight.Group
	mu          sync.RWMutex
	assistantID string

	pollInitial time.Duration
	pollMax     time.Duration
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.LLMRequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(cfg.OpenAIBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		baseURL:     baseURL,
		assistantID: cfg.AssistantID,
		pollInitial: 500 * time.Millisecond,
		pollMax:     5 * time.Second,
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.OpenAIAPIKey) != ""
}

// apiError is the error envelope returned by the API.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// do sends a JSON request and decodes the JSON response into out. Transport
// errors, 429 and 5xx responses are retried with backoff.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
	}

	attempts := max(c.cfg.MaxRetries, 1)
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.backoffSleep(ctx, attempt-1); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create %s request: %w", path, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("OpenAI-Beta", "assistants=v2")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			// Do not retry on context cancellation/deadline
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("Assistant API request failed, retrying", zap.String("path", path), zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		bodyBytes, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read %s response: %w", path, readErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(bodyBytes, out); err != nil {
				return fmt.Errorf("decode %s response: %w", path, err)
			}
			return nil
		}

		lastErr = statusError(path, resp.Status, bodyBytes)
		if !retryable(resp.StatusCode) {
			if resp.StatusCode == http.StatusUnauthorized {
				return apperrors.WrapError(apperrors.ErrConfiguration, lastErr.Error())
			}
			return lastErr
		}
		c.logger.Warn("Assistant API unavailable, retrying", zap.String("path", path), zap.String("status", resp.Status), zap.Int("attempt", attempt+1))
	}
	return apperrors.WrapError(apperrors.ErrServiceUnavailable, fmt.Sprintf("assistant api %s: %v", path, lastErr))
}

func statusError(path, status string, body []byte) error {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		return fmt.Errorf("assistant api %s: status %s: %s", path, status, ae.Error.Message)
	}
	return fmt.Errorf("assistant api %s: status %s: %s", path, status, strings.TrimSpace(string(body)))
}

// backoffSleep waits base*2^attempt (capped, with 10% jitter) or until ctx is done.
func (c *Client) backoffSleep(ctx context.Context, attempt int) error {
	base := c.cfg.RetryDelaySeconds
	if base <= 0 {
		base = time.Second
	}
	d := min(base*time.Duration(1<<attempt), maxBackoff)
	jitter := d / 10
	d = d - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter+1))
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
