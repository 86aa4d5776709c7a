package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns only userMessage to the client
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	if logger != nil {
		fields = append(fields,
			zap.Error(technicalError),
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("client_ip", c.ClientIP()))
		logger.Error("Request failed", fields...)
	}

	c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError rejects a bad request without logging it
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
}
