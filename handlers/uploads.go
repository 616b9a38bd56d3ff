package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/corpsite/corpsite-api/internal/models"
	"github.com/corpsite/corpsite-api/internal/storage"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/corpsite/corpsite-api/pkg/metrics"
	"github.com/corpsite/corpsite-api/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// multipart framing allowance on top of the file size limit
const multipartSlack = 1 << 20

// RegisterUploadRoutes mounts POST /api/uploads for CMS editors.
func RegisterUploadRoutes(r gin.IRouter, up *storage.Uploader, maxSize int64, ver middleware.Verifier) {
	if ver == nil {
		logger.Warn("upload route disabled: no token verifier")
		return
	}
	r.POST("/api/uploads", middleware.AuthMiddleware(ver), middleware.RequireRole(models.RoleAdmin, models.RoleInvestorsCMS), func(c *gin.Context) {
		if maxSize > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartSlack)
		}
		kind := c.PostForm("kind")
		label := kind
		if label == "" {
			label = "auto"
		}
		fh, err := c.FormFile("file")
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				metrics.Uploads.WithLabelValues(label, "too_large").Inc()
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": storage.ErrTooLarge.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		obj, err := up.Upload(c.Request.Context(), kind, f, fh.Size)
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			metrics.Uploads.WithLabelValues(label, "too_large").Inc()
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		case errors.Is(err, storage.ErrUnsupportedMedia), errors.Is(err, storage.ErrEmpty):
			metrics.Uploads.WithLabelValues(label, "rejected").Inc()
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		case err != nil:
			metrics.Uploads.WithLabelValues(label, "error").Inc()
			logger.Errorf("upload %s: %v", fh.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		default:
			metrics.Uploads.WithLabelValues(label, "ok").Inc()
			logger.Infow("upload stored", "file", fh.Filename, "key", obj.Key, "size", obj.Size, "sub", middleware.Claims(c)["sub"])
			c.JSON(http.StatusCreated, obj)
		}
	})
}

// RegisterStoredFiles serves GET /uploads/*path from a local store.
func RegisterStoredFiles(r gin.IRouter, store storage.Store) {
	r.GET("/uploads/*path", func(c *gin.Context) {
		key := storage.CleanKey(c.Param("path"))
		if key == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		rc, err := store.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			logger.Errorf("open %s: %v", key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		defer rc.Close()
		c.Header("Cache-Control", "public, max-age=86400")
		if rs, ok := rc.(io.ReadSeeker); ok {
			http.ServeContent(c.Writer, c.Request, path.Base(key), time.Time{}, rs)
			return
		}
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.DataFromReader(http.StatusOK, -1, ct, rc, nil)
	})
}
