package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/corpsite/corpsite-api/internal/models"
	"github.com/corpsite/corpsite-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var testPDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func multipartBody(t *testing.T, kind string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if kind != "" {
		require.NoError(t, mw.WriteField("kind", kind))
	}
	fw, err := mw.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newUploadRouter(max int64) *gin.Engine {
	store := storage.NewLocalStoreFs(afero.NewMemMapFs(), "/uploads")
	g := gin.New()
	RegisterUploadRoutes(g, storage.NewUploader(store, max), max, roleVerifier{})
	RegisterStoredFiles(g, store)
	return g
}

func TestUpload_StoresAndServesPDF(t *testing.T) {
	g := newUploadRouter(1 << 20)

	body, ct := multipartBody(t, "pdf", testPDF)
	w := serve(t, g, http.MethodPost, "/api/uploads", models.RoleInvestorsCMS, ct, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var obj storage.Object
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &obj))
	require.Regexp(t, `^pdf/[0-9a-f-]{36}\.pdf$`, obj.Key)
	require.Equal(t, "/uploads/"+obj.Key, obj.URL)

	w = serve(t, g, http.MethodGet, obj.URL, "", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Equal(t, testPDF, w.Body.Bytes())

	w = serve(t, g, http.MethodGet, "/uploads/pdf/missing.pdf", "", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpload_Rejections(t *testing.T) {
	g := newUploadRouter(64)

	body, ct := multipartBody(t, "pdf", testPDF)
	w := serve(t, g, http.MethodPost, "/api/uploads", "", ct, body)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	body, ct = multipartBody(t, "pdf", testPDF)
	w = serve(t, g, http.MethodPost, "/api/uploads", "viewer", ct, body)
	require.Equal(t, http.StatusForbidden, w.Code)

	body, ct = multipartBody(t, "pdf", testPDF)
	w = serve(t, g, http.MethodPost, "/api/uploads", models.RoleAdmin, ct, body)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	body, ct = multipartBody(t, "audio", []byte("plain text pretending"))
	w = serve(t, g, http.MethodPost, "/api/uploads", models.RoleAdmin, ct, body)
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = serve(t, g, http.MethodPost, "/api/uploads", models.RoleAdmin, "application/json", bytes.NewBufferString(`{}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
