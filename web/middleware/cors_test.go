package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
	}{
		{name: "any_origin", origin: "http://localhost:5173", method: http.MethodPost, wantStatus: http.StatusOK, wantOrigin: "*"},
		{name: "listed_origin", allowed: []string{"https://foa.example.edu"}, origin: "https://foa.example.edu", method: http.MethodPost, wantStatus: http.StatusOK, wantOrigin: "https://foa.example.edu"},
		{name: "unlisted_origin", allowed: []string{"https://foa.example.edu"}, origin: "https://evil.example", method: http.MethodPost, wantStatus: http.StatusOK, wantOrigin: ""},
		{name: "no_origin", method: http.MethodPost, wantStatus: http.StatusOK, wantOrigin: ""},
		{name: "preflight", origin: "http://localhost:5173", method: http.MethodOptions, wantStatus: http.StatusNoContent, wantOrigin: "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.allowed))
			router.POST("/api/chat/response", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/api/chat/response", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
