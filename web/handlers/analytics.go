package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"recruit-assistant/analytics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	store     analytics.Store
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewAnalyticsHandler(store analytics.Store, retention time.Duration, logger *zap.Logger) *AnalyticsHandler {
	if retention <= 0 {
		retention = analytics.DefaultRetention
	}
	return &AnalyticsHandler{
		store:     store,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// GetAnalytics summarizes the retained question log. Repeatable ?category=
// narrows the events, ?limit= caps how many of the newest are considered and
// ?top= sets the length of the frequency ranking.
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	now := h.now().UTC()

	filter := analytics.ListFilter{
		Since: now.Add(-h.retention),
	}
	for _, raw := range c.QueryArray("category") {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				filter.Categories = append(filter.Categories, name)
			}
		}
	}
	var ok bool
	if filter.Limit, ok = positiveIntQuery(c, "limit"); !ok {
		respondWithClientError(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	top, ok := positiveIntQuery(c, "top")
	if !ok {
		respondWithClientError(c, http.StatusBadRequest, "top must be a positive integer")
		return
	}

	events, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to fetch analytics", h.logger)
		return
	}
	summary := analytics.Summarize(events, top)

	body := gin.H{
		"success":         true,
		"totalQuestions":  summary.TotalQuestions,
		"uniqueQuestions": summary.UniqueQuestions,
		"questions":       summary.Questions,
		"categories":      summary.Categories,
		"topQuestions":    summary.TopQuestions,
		"timestamp":       now,
	}
	if summary.TotalQuestions > 0 {
		body["mostPopularCount"] = summary.MostPopularCount
	}
	c.JSON(http.StatusOK, body)
}

// ClearAnalytics drops every recorded question.
func (h *AnalyticsHandler) ClearAnalytics(c *gin.Context) {
	deleted, err := h.store.Clear(c.Request.Context())
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to clear analytics", h.logger)
		return
	}

	h.logger.Info("Analytics cleared", zap.Int64("deleted", deleted))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Analytics cleared",
		"deleted": deleted,
	})
}

// positiveIntQuery returns 0 when the parameter is absent.
func positiveIntQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
