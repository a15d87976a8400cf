package handlers

import (
	"context"
	"net/http"
	"strings"

	"recruit-assistant/chat"
	apperrors "recruit-assistant/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Asker is the conversation service behind the chat endpoint.
type Asker interface {
	Ask(ctx context.Context, req chat.Request) (chat.Response, error)
}

type ChatHandler struct {
	service Asker
	logger  *zap.Logger
}

type ChatRequest struct {
	Message  string `json:"message" form:"message"`
	ThreadID string `json:"threadId" form:"threadId"`
}

func NewChatHandler(service Asker, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req ChatRequest
	// An unreadable body is treated like a missing message.
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Debug("Could not bind chat request", zap.Error(err))
	}

	resp, err := h.service.Ask(c.Request.Context(), chat.Request{
		Message:  req.Message,
		ThreadID: strings.TrimSpace(req.ThreadID),
	})
	if err != nil {
		switch {
		case apperrors.IsInvalidInput(err):
			respondWithClientError(c, http.StatusBadRequest, "Message is required")
		case apperrors.IsConfiguration(err):
			respondWithError(c, http.StatusInternalServerError, err, "Server configuration error", h.logger)
		case apperrors.IsUpstream(err):
			respondWithError(c, http.StatusInternalServerError, err, "Failed to get response", h.logger,
				zap.String("thread_id", req.ThreadID))
		default:
			respondWithError(c, apperrors.HTTPStatus(err), err, "Failed to process request", h.logger)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":        resp.Reply,
		"threadId":     resp.ThreadID,
		"scrollToForm": resp.ScrollToForm,
		"cached":       resp.Cached,
		"success":      true,
	})
}
