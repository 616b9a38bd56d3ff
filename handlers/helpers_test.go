package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/corpsite/corpsite-api/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// roleVerifier treats the bearer token as the caller's role.
type roleVerifier struct{}

func (roleVerifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	return fakeIDToken{"sub": "user-" + raw, "username": raw + "-user", "role": raw}, nil
}

func serve(t *testing.T, g *gin.Engine, method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func init() {
	gin.SetMode(gin.TestMode)
}
