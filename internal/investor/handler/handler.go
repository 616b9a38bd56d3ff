package handler

import (
	"errors"
	"net/http"

	"github.com/corpsite/corpsite-api/internal/investor"
	"github.com/corpsite/corpsite-api/internal/investor/service"
	"github.com/corpsite/corpsite-api/internal/models"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/corpsite/corpsite-api/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type listingResponse struct {
	*service.Listing
	// Degraded is set when the store failed and an empty listing was served instead.
	Degraded bool `json:"degraded,omitempty"`
}

type documentRequest struct {
	Title         string `json:"title" binding:"required"`
	PDFURL        string `json:"pdfUrl"`
	AudioURL      string `json:"audioUrl"`
	Link          string `json:"link"`
	Year          string `json:"year"`
	PublishedDate string `json:"publishedDate"`
}

// RegisterInvestorRoutes mounts the public listing endpoints and, when ver is
// non-nil, the CMS write endpoints for admin and InvestorsCMS users.
func RegisterInvestorRoutes(r gin.IRouter, svc service.Service, ver middleware.Verifier) {
	g := r.Group("/api/investors")

	g.GET("/sections", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sections": investor.Sections})
	})

	g.GET("/:section/documents", func(c *gin.Context) {
		section := c.Param("section")
		l, err := svc.List(c.Request.Context(), section, c.Query("year"))
		if err != nil {
			if errors.Is(err, investor.ErrUnknownSection) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			// the page still renders; it just shows nothing
			logger.Errorf("list %s documents: %v", section, err)
			c.JSON(http.StatusOK, listingResponse{
				Listing:  &service.Listing{Section: section, Documents: []investor.Document{}, Years: []string{}},
				Degraded: true,
			})
			return
		}
		c.JSON(http.StatusOK, listingResponse{Listing: l})
	})

	g.GET("/:section/years", func(c *gin.Context) {
		years, err := svc.Years(c.Request.Context(), c.Param("section"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"years": years})
	})

	if ver == nil {
		logger.Warn("investor CMS routes disabled: no token verifier")
		return
	}
	cms := g.Group("/:section/documents", middleware.AuthMiddleware(ver), middleware.RequireRole(models.RoleAdmin, models.RoleInvestorsCMS))

	cms.POST("", func(c *gin.Context) {
		var req documentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d := &investor.Document{
			Section:       c.Param("section"),
			Title:         req.Title,
			PDFURL:        req.PDFURL,
			AudioURL:      req.AudioURL,
			Link:          req.Link,
			Year:          req.Year,
			PublishedDate: req.PublishedDate,
		}
		id, err := svc.Create(c.Request.Context(), d)
		if err != nil {
			writeError(c, err)
			return
		}
		created, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		logger.Infof("investor document %s created in %s by %v", id, d.Section, middleware.Claims(c)["sub"])
		c.JSON(http.StatusCreated, created)
	})

	cms.GET("/:id", func(c *gin.Context) {
		d, ok := documentInSection(c, svc)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, d)
	})

	cms.PATCH("/:id", func(c *gin.Context) {
		if _, ok := documentInSection(c, svc); !ok {
			return
		}
		var p investor.Patch
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := svc.Update(c.Request.Context(), c.Param("id"), p)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	cms.DELETE("/:id", func(c *gin.Context) {
		if _, ok := documentInSection(c, svc); !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		logger.Infof("investor document %s deleted by %v", c.Param("id"), middleware.Claims(c)["sub"])
		c.Status(http.StatusNoContent)
	})
}

// documentInSection loads :id and checks it belongs to :section; it writes the
// error response itself.
func documentInSection(c *gin.Context, svc service.Service) (*investor.Document, bool) {
	d, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if d.Section != c.Param("section") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return d, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, investor.ErrUnknownSection):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, investor.ErrTitleRequired), errors.Is(err, investor.ErrNoResource):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("investor documents: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
