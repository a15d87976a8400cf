package handlers

import (
	apperrors "recruit-assistant/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns a user-friendly message
// together with the error detail
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	// Log technical error with context
	if logger != nil {
		fields = append(fields, zap.Error(technicalError), zap.String("path", c.FullPath()))
		logger.Error("Request failed", fields...)
	}

	c.JSON(statusCode, gin.H{
		"error":   userMessage,
		"details": apperrors.Detail(technicalError),
		"success": false,
	})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}
