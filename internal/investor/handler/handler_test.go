package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corpsite/corpsite-api/internal/investor"
	"github.com/corpsite/corpsite-api/internal/investor/service"
	"github.com/corpsite/corpsite-api/internal/models"
	"github.com/corpsite/corpsite-api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type roleToken string

func (r roleToken) Claims(v interface{}) error {
	m, ok := v.(*map[string]interface{})
	if !ok {
		return fmt.Errorf("unsupported claims type")
	}
	*m = map[string]interface{}{"sub": "u-" + string(r), "role": string(r)}
	return nil
}

// roleVerifier accepts any token and treats it as the role name.
type roleVerifier struct{}

func (roleVerifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	return roleToken(raw), nil
}

func do(t *testing.T, g *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestInvestorHandler_CRUDAndListing(t *testing.T) {
	g := gin.New()
	svc := service.NewMemoryService()
	RegisterInvestorRoutes(g, svc, roleVerifier{})

	// create
	w := do(t, g, http.MethodPost, "/api/investors/annual-reports/documents", models.RoleInvestorsCMS,
		`{"title":"Annual Report 2022-23","pdfUrl":"/uploads/pdf/ar23.pdf","year":"2022-23","publishedDate":"30/06/2023"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created investor.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, created.CreatedAt)

	w = do(t, g, http.MethodPost, "/api/investors/annual-reports/documents", models.RoleAdmin,
		`{"title":"Annual Report 2023-24","pdfUrl":"/uploads/pdf/ar24.pdf","year":"2023-24","publishedDate":"28/06/2024"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// public listing defaults to the most recent year
	w = do(t, g, http.MethodGet, "/api/investors/annual-reports/documents", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var l struct {
		Documents    []investor.Document `json:"documents"`
		Years        []string            `json:"years"`
		SelectedYear string              `json:"selectedYear"`
		Degraded     bool                `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	require.Equal(t, "2023-24", l.SelectedYear)
	require.Equal(t, []string{"2023-24", "2022-23"}, l.Years)
	require.Len(t, l.Documents, 1)
	require.False(t, l.Degraded)

	w = do(t, g, http.MethodGet, "/api/investors/annual-reports/documents?year=all", "", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	require.Len(t, l.Documents, 2)
	require.Equal(t, "Annual Report 2023-24", l.Documents[0].Title)

	// years
	w = do(t, g, http.MethodGet, "/api/investors/annual-reports/years", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"years":["2023-24","2022-23"]}`, w.Body.String())

	// patch
	path := "/api/investors/annual-reports/documents/" + created.ID
	w = do(t, g, http.MethodPatch, path, models.RoleInvestorsCMS, `{"title":"AR 2022-23 (revised)"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "revised")

	// wrong section for the id
	w = do(t, g, http.MethodDelete, "/api/investors/policies/documents/"+created.ID, models.RoleAdmin, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// delete
	w = do(t, g, http.MethodDelete, path, models.RoleInvestorsCMS, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, g, http.MethodGet, path, models.RoleInvestorsCMS, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvestorHandler_Guards(t *testing.T) {
	g := gin.New()
	RegisterInvestorRoutes(g, service.NewMemoryService(), roleVerifier{})
	body := `{"title":"x","link":"https://example.com"}`

	require.Equal(t, http.StatusUnauthorized, do(t, g, http.MethodPost, "/api/investors/policies/documents", "", body).Code)
	require.Equal(t, http.StatusForbidden, do(t, g, http.MethodPost, "/api/investors/policies/documents", "editor", body).Code)
	require.Equal(t, http.StatusNotFound, do(t, g, http.MethodPost, "/api/investors/unknown/documents", models.RoleAdmin, body).Code)
	require.Equal(t, http.StatusBadRequest, do(t, g, http.MethodPost, "/api/investors/policies/documents", models.RoleAdmin, `{"title":"no resource"}`).Code)
	require.Equal(t, http.StatusBadRequest, do(t, g, http.MethodPost, "/api/investors/policies/documents", models.RoleAdmin, `{"link":"/x"}`).Code)
	require.Equal(t, http.StatusNotFound, do(t, g, http.MethodGet, "/api/investors/unknown/documents", "", "").Code)

	w := do(t, g, http.MethodGet, "/api/investors/sections", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "earnings-calls")
}

func TestInvestorHandler_ReadOnlyWithoutVerifier(t *testing.T) {
	g := gin.New()
	RegisterInvestorRoutes(g, service.NewMemoryService(), nil)
	w := do(t, g, http.MethodPost, "/api/investors/policies/documents", models.RoleAdmin, `{"title":"x","link":"/x"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

// failingService breaks List to exercise the empty fallback.
type failingService struct{ service.Service }

func (failingService) List(context.Context, string, string) (*service.Listing, error) {
	return nil, errors.New("mongo down")
}

func TestInvestorHandler_DegradesToEmptyListing(t *testing.T) {
	g := gin.New()
	RegisterInvestorRoutes(g, failingService{service.NewMemoryService()}, nil)

	w := do(t, g, http.MethodGet, "/api/investors/announcements/documents", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"section":"announcements","documents":[],"years":[],"selectedYear":"","degraded":true}`, w.Body.String())
}
