package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"foa-chat/config"
	apperrors "foa-chat/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGeminiClientAsk(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"42"}],"role":"model"}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(srv.URL+"/", "gemini-2.0-flash", "secret", time.Second, zap.NewNop())
	answer, err := c.Ask(context.Background(), "meaning of life")
	require.NoError(t, err)

	assert.Equal(t, "42", answer)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, "meaning of life", gotBody.Contents[0].Parts[0].Text)
}

func TestGeminiClientUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server_error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom"}}`},
		{name: "forbidden", status: http.StatusForbidden, body: `{"error":{"message":"bad key"}}`},
		{name: "no_candidates", status: http.StatusOK, body: `{"candidates":[]}`},
		{name: "no_parts", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[]}}]}`},
		{name: "blank_text", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`},
		{name: "not_json", status: http.StatusOK, body: `<html>proxy error</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewGeminiClient(srv.URL, "gemini-2.0-flash", "secret", time.Second, zap.NewNop())
			answer, err := c.Ask(context.Background(), "question")
			assert.Empty(t, answer)
			assert.True(t, apperrors.IsOracleUnavailable(err), "got %v", err)
		})
	}
}

func TestGeminiClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewGeminiClient(url, "gemini-2.0-flash", "secret", time.Second, zap.NewNop())
	_, err := c.Ask(context.Background(), "question")
	assert.True(t, apperrors.IsOracleUnavailable(err))
	assert.NotContains(t, err.Error(), "secret")
}

func TestGeminiClientHonorsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewGeminiClient(srv.URL, "gemini-2.0-flash", "secret", time.Minute, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Ask(ctx, "question")
	assert.True(t, apperrors.IsOracleUnavailable(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestChatClientAsk(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Paris"}}]}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "local-model", "token", time.Second, zap.NewNop())
	answer, err := c.Ask(context.Background(), "capital of france")
	require.NoError(t, err)

	assert.Equal(t, "Paris", answer)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "local-model", gotBody.Model)
	assert.False(t, gotBody.Stream)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, chatMessage{Role: "user", Content: "capital of france"}, gotBody.Messages[0])
}

func TestChatClientUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "loading", status: http.StatusServiceUnavailable, body: `{"error":"loading model"}`},
		{name: "no_choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "empty_content", status: http.StatusOK, body: `{"choices":[{"message":{"content":""}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewChatClient(srv.URL, "", "", time.Second, zap.NewNop())
			_, err := c.Ask(context.Background(), "question")
			assert.True(t, apperrors.IsOracleUnavailable(err))
			assert.Equal(t, int32(1), calls.Load(), "no retries")
		})
	}
}

func TestNewSelectsProvider(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name    string
		cfg     config.Config
		wantTyp interface{}
	}{
		{name: "gemini_with_key", cfg: config.Config{OracleProvider: config.OracleProviderGemini, GeminiAPIKey: "k"}, wantTyp: &GeminiClient{}},
		{name: "gemini_without_key", cfg: config.Config{OracleProvider: config.OracleProviderGemini}, wantTyp: Disabled{}},
		{name: "default_provider_without_key", cfg: config.Config{}, wantTyp: Disabled{}},
		{name: "openai_with_host", cfg: config.Config{OracleProvider: config.OracleProviderOpenAI, OracleHost: "http://localhost:8080"}, wantTyp: &ChatClient{}},
		{name: "openai_without_host", cfg: config.Config{OracleProvider: config.OracleProviderOpenAI}, wantTyp: Disabled{}},
		{name: "none", cfg: config.Config{OracleProvider: config.OracleProviderNone, GeminiAPIKey: "k"}, wantTyp: Disabled{}},
		{name: "unknown", cfg: config.Config{OracleProvider: "bard"}, wantTyp: Disabled{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(&tt.cfg, logger)
			assert.IsType(t, tt.wantTyp, o)
		})
	}
}

func TestDisabledIsUnavailable(t *testing.T) {
	answer, err := Disabled{Reason: "gemini api key not configured"}.Ask(context.Background(), "q")
	assert.Empty(t, answer)
	assert.True(t, apperrors.IsOracleUnavailable(err))
	assert.EqualError(t, err, "gemini api key not configured: fallback oracle unavailable")
}
