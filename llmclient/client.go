package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "foa-chat/errors"

	"go.uber.org/zap"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatClient calls an OpenAI-compatible chat completions endpoint, such as
// a self-hosted llama.cpp server.
type ChatClient struct {
	host       string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewChatClient(host, model, apiKey string, timeout time.Duration, logger *zap.Logger) *ChatClient {
	return &ChatClient{
		host:       strings.TrimRight(host, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Ask performs a single non-streaming chat completion call. It does not
// retry; an unavailable server simply means no answer.
func (c *ChatClient) Ask(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, err, "marshal chat request")
	}

	url := fmt.Sprintf("%s/v1/chat/completions", c.host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, err, "create chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, err, "send chat request")
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, err, "read chat response")
	}

	if resp.StatusCode != http.StatusOK {
		if len(bodyBytes) > maxErrorBody {
			bodyBytes = bodyBytes[:maxErrorBody]
		}
		c.logger.Debug("LLM server non-200 response", zap.String("status", resp.Status), zap.String("response", string(bodyBytes)))
		return "", apperrors.WrapErrorf(apperrors.ErrOracleUnavailable, "llm server status %s", resp.Status)
	}

	var cr chatResponse
	if err := json.Unmarshal(bodyBytes, &cr); err != nil {
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, err, "decode chat response")
	}
	if len(cr.Choices) == 0 {
		return "", apperrors.WrapError(apperrors.ErrOracleUnavailable, "no response choices from llm server")
	}
	return answerText("llm server", cr.Choices[0].Message.Content)
}
