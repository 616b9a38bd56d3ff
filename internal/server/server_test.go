package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/corpsite/corpsite-api/internal/config"
	"github.com/corpsite/corpsite-api/internal/enquiries"
	invservice "github.com/corpsite/corpsite-api/internal/investor/service"
	"github.com/corpsite/corpsite-api/internal/pages"
	"github.com/corpsite/corpsite-api/internal/sessions"
	"github.com/corpsite/corpsite-api/internal/storage"
	"github.com/corpsite/corpsite-api/internal/tokens"
	"github.com/corpsite/corpsite-api/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func testDeps() Deps {
	cfg := &config.Config{}
	cfg.Server.CORSOrigin = "https://www.example.com"
	cfg.JWT.Secret = "test-secret"
	cfg.Storage.MaxUploadSize = 1 << 20
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 100, Burst: 100}
	return Deps{
		Config:    cfg,
		Users:     users.NewService(users.NewMemoryUserRepository()),
		Sessions:  sessions.NewService(sessions.NewMemoryRepository()),
		Access:    tokens.NewVerifier(cfg.JWT.Secret),
		Investors: invservice.NewMemoryService(),
		Pages:     pages.NewService(pages.NewMemoryRepository()),
		Store:     storage.NewLocalStoreFs(afero.NewMemMapFs(), "/uploads"),
		Archive:   enquiries.NewMemoryArchive(),
	}
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Origin", "https://www.example.com")
	r.ServeHTTP(w, req)
	return w
}

func TestNew_OpsEndpoints(t *testing.T) {
	r := New(testDeps())

	w := get(t, r, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", w.Body.String())
	assert.Equal(t, "https://www.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(t, r, "/ready")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string          `json:"status"`
		Deps   map[string]bool `json:"deps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	assert.True(t, body.Deps["sessions"])
	assert.False(t, body.Deps["mail"])

	assert.Equal(t, http.StatusOK, get(t, r, "/metrics").Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/swagger/doc.json").Code)
}

func TestNew_MountsDomainRoutes(t *testing.T) {
	d := testDeps()
	require.NoError(t, d.Store.Put(context.Background(), "pdf/a.pdf", stringsReader("%PDF-1.4"), 8, "application/pdf"))
	r := New(d)

	assert.Equal(t, http.StatusOK, get(t, r, "/api/investors/sections").Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/api/investors/annual-reports/documents").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/investors/nope/documents").Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/api/pages").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, r, "/api/v1/me").Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/uploads/pdf/a.pdf").Code)
}

func TestReady_RedisDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	d := testDeps()
	d.Config.Redis.Host = "127.0.0.1"
	d.Redis = redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer d.Redis.Close()
	r := New(d)

	require.Equal(t, http.StatusOK, get(t, r, "/ready").Code)

	m.Close()
	w := get(t, r, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":false`)
}

func TestReady_SSOConfiguredButMissing(t *testing.T) {
	d := testDeps()
	d.Config.Keycloak = config.KeycloakConfig{URL: "https://sso.example.com", Realm: "corp", ClientID: "cms"}
	w := get(t, New(d), "/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"oidc":false`)
}

func TestLimiter(t *testing.T) {
	d := testDeps()
	assert.Len(t, limiter(d, "t1"), 1)

	d.Config.RateLimit.Enabled = false
	assert.Empty(t, limiter(d, "t2"))
}

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }
