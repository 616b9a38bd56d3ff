package handlers

import (
	"errors"
	"net/http"

	"github.com/corpsite/corpsite-api/internal/models"
	"github.com/corpsite/corpsite-api/internal/pages"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/corpsite/corpsite-api/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type pageRequest struct {
	Title    string          `json:"title" binding:"required"`
	Sections []pages.Section `json:"sections"`
}

// RegisterPageRoutes serves CMS pages publicly; edits need the admin role.
// Slugs may contain slashes ("products/steel-pipes").
func RegisterPageRoutes(r gin.IRouter, svc *pages.Service, ver middleware.Verifier) {
	r.GET("/api/pages", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			logger.Errorf("list pages: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, p := range list {
			out = append(out, gin.H{"slug": p.Slug, "title": p.Title, "updatedAt": p.UpdatedAt})
		}
		c.JSON(http.StatusOK, gin.H{"pages": out})
	})

	r.GET("/api/pages/*slug", func(c *gin.Context) {
		v, err := svc.Get(c.Request.Context(), c.Param("slug"))
		if err != nil {
			if errors.Is(err, pages.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
				return
			}
			logger.Errorf("get page %s: %v", c.Param("slug"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, v)
	})

	if ver == nil {
		return
	}
	r.PUT("/api/pages/*slug", middleware.AuthMiddleware(ver), middleware.RequireRole(models.RoleAdmin), func(c *gin.Context) {
		var req pageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		editor, _ := middleware.Claims(c)["username"].(string)
		p, err := svc.Put(c.Request.Context(), c.Param("slug"), req.Title, req.Sections, editor)
		switch {
		case errors.Is(err, pages.ErrInvalidSlug), errors.Is(err, pages.ErrTitleRequired), errors.Is(err, pages.ErrSectionKey):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case err != nil:
			logger.Errorf("put page: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		default:
			c.JSON(http.StatusOK, p)
		}
	})
}
