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

// maxErrorBody caps how much of a failed response body is kept for logs.
const maxErrorBody = 4096

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls the generateContent endpoint of the Gemini API.
type GeminiClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGeminiClient(baseURL, model, apiKey string, timeout time.Duration, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Ask sends prompt as a single user turn and returns the text of the first
// part of the first candidate.
func (c *GeminiClient) Ask(ctx context.Context, prompt string) (string, error) {
	reqBody := generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, err, "marshal gemini request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, err, "create gemini request")
	}
	req.Header.Set("Content-Type", "application/json")
	// Header rather than ?key= so transport errors never echo the key.
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, err, "send gemini request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("Gemini API non-200 response", zap.String("status", resp.Status), zap.String("response", string(bodyBytes)))
		return "", apperrors.WrapErrorf(apperrors.ErrOracleUnavailable, "gemini status %s", resp.Status)
	}

	var gr generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, err, "decode gemini response")
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.WrapError(apperrors.ErrOracleUnavailable, "gemini response has no candidate text")
	}
	return answerText("gemini", gr.Candidates[0].Content.Parts[0].Text)
}
