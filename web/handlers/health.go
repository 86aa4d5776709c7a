package handlers

import (
	"context"
	"net/http"
	"time"

	apperrors "foa-chat/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the knowledge store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	logger *zap.Logger
}

func NewHealthHandler(store Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		err = apperrors.Categorize(apperrors.ErrServiceUnavailable, err, "ping knowledge store")
		respondWithError(c, http.StatusServiceUnavailable, err, "knowledge store unavailable", h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
