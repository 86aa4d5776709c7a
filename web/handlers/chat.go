package handlers

import (
	"context"
	"net/http"
	"strings"

	apperrors "foa-chat/errors"
	"foa-chat/resolver"
	"foa-chat/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnswerSourceHeader reports which branch answered, for debugging clients.
const AnswerSourceHeader = "X-Answer-Source"

// Responder resolves a validated question to an answer.
type Responder interface {
	Resolve(ctx context.Context, question string) (resolver.Answer, error)
}

type ChatHandler struct {
	responder Responder
	logger    *zap.Logger
}

func NewChatHandler(responder Responder, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		responder: responder,
		logger:    logger,
	}
}

// Respond handles POST /api/chat/response.
func (h *ChatHandler) Respond(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	question, err := validateQuestion(req.Question)
	if apperrors.IsInvalidInput(err) {
		respondWithClientError(c, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.responder.Resolve(c.Request.Context(), question)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to get a response", h.logger,
			zap.String("question", question),
			zap.Bool("storage_error", apperrors.IsDatabaseOperation(err)))
		return
	}

	c.Header(AnswerSourceHeader, string(answer.Source))
	c.JSON(http.StatusOK, types.ChatResponse{Response: answer.Text})
}

func validateQuestion(raw string) (string, error) {
	question := strings.TrimSpace(raw)
	if question == "" {
		return "", apperrors.WrapError(apperrors.ErrInvalidInput, "question is required")
	}
	return question, nil
}
