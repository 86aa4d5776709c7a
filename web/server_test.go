package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foa-chat/config"
	"foa-chat/resolver"
	"foa-chat/web/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	entries []types.QAEntry
}

func (m *memoryStore) ListEntries(ctx context.Context) ([]types.QAEntry, error) {
	return m.entries, nil
}

func (m *memoryStore) AppendEntry(ctx context.Context, question, answer string) error {
	m.entries = append(m.entries, types.QAEntry{Question: question, Answer: answer})
	return nil
}

func (m *memoryStore) Ping(ctx context.Context) error { return nil }

type staticOracle string

func (o staticOracle) Ask(ctx context.Context, prompt string) (string, error) {
	return string(o), nil
}

func testConfig() *config.Config {
	return &config.Config{
		RateLimitRequestsPerMin: 60,
		RateLimitBurstSize:      2,
		RateLimitMaxClients:     16,
		ShutdownTimeout:         time.Second,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memoryStore{entries: []types.QAEntry{{Question: "what is ai?", Answer: "machines that think"}}}
	r := resolver.New(store, staticOracle("42"), zap.NewNop())
	srv, err := NewServer(r, store, zap.NewNop(), cfg)
	require.NoError(t, err)
	return srv, store
}

func ask(h http.Handler, question string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(types.ChatRequest{Question: question})
	req := httptest.NewRequest(http.MethodPost, "/api/chat/response", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.7:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServerChatFlow(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRequestsPerMin = 0
	srv, store := newTestServer(t, cfg)

	w := ask(srv.Handler(), "What is AI")
	require.Equal(t, http.StatusOK, w.Code)
	var resp types.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "machines that think", resp.Response)
	assert.Equal(t, "matched", w.Header().Get("X-Answer-Source"))

	w = ask(srv.Handler(), "meaning of life")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "42", resp.Response)
	assert.Len(t, store.entries, 2)

	// Rate limiting is off, so no headers are set.
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestServerHealth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServerRateLimitsChat(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	assert.Equal(t, http.StatusOK, ask(srv.Handler(), "what is ai?").Code)
	assert.Equal(t, http.StatusOK, ask(srv.Handler(), "what is ai?").Code)
	w := ask(srv.Handler(), "what is ai?")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Health checks are not limited.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func askVia(h http.Handler, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat/response", strings.NewReader(`{"question":"what is ai?"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServerRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitBurstSize = 1
	srv, _ := newTestServer(t, cfg)

	allowed := 0
	for i := 0; i < 20; i++ {
		w := askVia(srv.Handler(), "203.0.113.7:40000", fmt.Sprintf("198.18.0.%d", i+1))
		if w.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}

func TestServerRateLimitHonorsForwardedForFromTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitBurstSize = 1
	cfg.TrustedProxies = "203.0.113.7"
	srv, _ := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, askVia(srv.Handler(), "203.0.113.7:40000", "198.18.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, askVia(srv.Handler(), "203.0.113.7:40001", "198.18.0.1").Code)
	assert.Equal(t, http.StatusOK, askVia(srv.Handler(), "203.0.113.7:40002", "198.18.0.2").Code)
}

func TestNewServerRejectsBadTrustedProxy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.TrustedProxies = "not-an-ip"

	_, err := NewServer(&fakeNoopResponder{}, &memoryStore{}, zap.NewNop(), cfg)
	assert.Error(t, err)
}

type fakeNoopResponder struct{}

func (fakeNoopResponder) Resolve(ctx context.Context, question string) (resolver.Answer, error) {
	return resolver.Answer{}, nil
}
