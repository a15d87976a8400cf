package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recruit-assistant/analytics"
	"recruit-assistant/assistant"
	"recruit-assistant/cache"
	"recruit-assistant/chat"
	"recruit-assistant/config"
	apperrors "recruit-assistant/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubAssistant struct {
	configured bool
	reply      string
	err        error
	calls      int
}

func (s *stubAssistant) Configured() bool { return s.configured }

func (s *stubAssistant) Answer(_ context.Context, _, threadID string) (assistant.Answer, error) {
	s.calls++
	if s.err != nil {
		return assistant.Answer{}, s.err
	}
	if threadID == "" {
		threadID = "thread_abc"
	}
	return assistant.Answer{Text: s.reply, ThreadID: threadID}, nil
}

type testServer struct {
	*Server
	assistant *stubAssistant
	store     *analytics.MemoryStore
	recorder  *analytics.Recorder
}

func newTestServer(t *testing.T, a *stubAssistant) *testServer {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		AnalyticsRetentionDays:  30,
		RateLimitMessagesPerMin: 600,
		RateLimitBurstSize:      100,
	}

	c, err := cache.New(cache.Options{}, logger)
	require.NoError(t, err)
	store := analytics.NewMemoryStore()
	recorder := analytics.NewRecorder(store, logger)
	svc := chat.NewService(a, c, recorder, logger)

	srv := NewServer(svc, store, logger, cfg)
	t.Cleanup(srv.limiter.Stop)
	return &testServer{Server: srv, assistant: a, store: store, recorder: recorder}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestChatEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubAssistant{
		configured: true,
		reply:      "Starting salary is $66,432, rising to $73,824.【3:1†pay.pdf】 [SCROLL_TO_FORM]",
	})

	w := ts.do(http.MethodPost, "/chat", `{"message":"What is the starting salary?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Starting salary is $66,432, rising to $73,824.", body["reply"])
	assert.Equal(t, "thread_abc", body["threadId"])
	assert.Equal(t, true, body["scrollToForm"])
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = ts.do(http.MethodPost, "/api/chat", `{"message":"what is the starting salary"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["cached"])
	assert.Equal(t, 1, ts.assistant.calls)
}

func TestChatEndpointErrors(t *testing.T) {
	t.Run("missing message", func(t *testing.T) {
		ts := newTestServer(t, &stubAssistant{configured: true})
		w := ts.do(http.MethodPost, "/chat", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, map[string]any{"error": "Message is required"}, decode(t, w))
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t, &stubAssistant{configured: true})
		w := ts.do(http.MethodPost, "/chat", `{"message":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong message type", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		a := &stubAssistant{configured: true}
		srv := NewServer(chat.NewService(a, nil, nil, zap.NewNop()), analytics.NewMemoryStore(), zap.New(core), &config.Config{})
		t.Cleanup(srv.limiter.Stop)

		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":5}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, map[string]any{"error": "Message is required"}, decode(t, w))
		assert.Equal(t, 1, logs.FilterMessage("Could not bind chat request").Len())
	})

	t.Run("missing api key", func(t *testing.T) {
		ts := newTestServer(t, &stubAssistant{})
		w := ts.do(http.MethodPost, "/chat", `{"message":"How do I apply?"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Server configuration error", body["error"])
		assert.Equal(t, "API key not configured", body["details"])
		assert.Equal(t, false, body["success"])
	})

	t.Run("failed run", func(t *testing.T) {
		ts := newTestServer(t, &stubAssistant{
			configured: true,
			err:        apperrors.WrapErrorf(apperrors.ErrUpstream, "Run status: %s", "failed"),
		})
		w := ts.do(http.MethodPost, "/chat", `{"message":"How do I apply?"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Failed to get response", body["error"])
		assert.Equal(t, "Run status: failed", body["details"])
		assert.Equal(t, false, body["success"])
	})
}

func TestMethodHandling(t *testing.T) {
	ts := newTestServer(t, &stubAssistant{configured: true})

	w := ts.do(http.MethodOptions, "/chat", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/chat"},
		{http.MethodPut, "/api/chat"},
		{http.MethodPost, "/analytics"},
	} {
		w := ts.do(tc.method, tc.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, map[string]any{"error": "Method not allowed"}, decode(t, w))
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubAssistant{configured: true, reply: "answer"})

	for _, msg := range []string{
		"How much does a trooper make?",
		"how much does a trooper make",
		"Is there a pension plan?",
		"thanks",
	} {
		w := ts.do(http.MethodPost, "/chat", `{"message":"`+msg+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	ts.recorder.Wait()

	w := ts.do(http.MethodGet, "/analytics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 3, body["totalQuestions"])
	assert.EqualValues(t, 2, body["uniqueQuestions"])
	assert.EqualValues(t, 2, body["mostPopularCount"])
	assert.Len(t, body["questions"], 3)
	assert.NotEmpty(t, body["timestamp"])

	top := body["topQuestions"].([]any)
	require.NotEmpty(t, top)
	assert.EqualValues(t, 2, top[0].(map[string]any)["count"])

	w = ts.do(http.MethodGet, "/api/analytics?category=Benefits", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["totalQuestions"])

	w = ts.do(http.MethodGet, "/analytics?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsClear(t *testing.T) {
	ts := newTestServer(t, &stubAssistant{configured: true, reply: "answer"})
	require.NoError(t, ts.store.Record(context.Background(), analytics.Event{
		Question:  "Where is Troop A?",
		Category:  "Locations/Troop Assignments",
		Timestamp: time.Now(),
	}))

	w := ts.do(http.MethodDelete, "/analytics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["deleted"])

	w = ts.do(http.MethodGet, "/analytics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 0, body["totalQuestions"])
	assert.Equal(t, []any{}, body["questions"])
	assert.NotContains(t, body, "mostPopularCount")
}

func TestRateLimit(t *testing.T) {
	a := &stubAssistant{configured: true, reply: "answer"}
	srv := NewServer(chat.NewService(a, nil, nil, zap.NewNop()), analytics.NewMemoryStore(), zap.NewNop(), &config.Config{
		RateLimitMessagesPerMin: 1,
		RateLimitBurstSize:      2,
	})
	t.Cleanup(srv.limiter.Stop)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"How do I apply?"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, a.calls)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &stubAssistant{configured: true})
	w := ts.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "cache")
}
