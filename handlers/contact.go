package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/corpsite/corpsite-api/internal/enquiries"
	"github.com/corpsite/corpsite-api/internal/mail"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/corpsite/corpsite-api/pkg/metrics"
	"github.com/gin-gonic/gin"
)

const mailTimeout = 15 * time.Second

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"max=40"`
	Company string `json:"company" binding:"max=200"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// ContactHandler archives enquiries and forwards them by mail.
type ContactHandler struct {
	archive enquiries.Archive
	mailer  mail.Mailer // nil when SMTP is disabled
}

func NewContactHandler(archive enquiries.Archive, mailer mail.Mailer) *ContactHandler {
	return &ContactHandler{archive: archive, mailer: mailer}
}

// Register mounts POST /api/contact behind the given middlewares (rate limiting).
func (h *ContactHandler) Register(r gin.IRouter, mw ...gin.HandlerFunc) {
	r.POST("/api/contact", append(mw, h.Submit)...)
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ContactMessages.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enquiry", "details": err.Error()})
		return
	}
	ctx := c.Request.Context()
	e := &enquiries.Enquiry{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Company:  strings.TrimSpace(req.Company),
		Subject:  strings.TrimSpace(req.Subject),
		Message:  strings.TrimSpace(req.Message),
		RemoteIP: c.ClientIP(),
	}
	if err := h.archive.Save(ctx, e); err != nil {
		logger.Errorf("archive enquiry: %v", err)
		metrics.ContactMessages.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record enquiry"})
		return
	}

	if h.mailer == nil {
		h.finish(ctx, e, enquiries.StatusArchived, "")
		c.JSON(http.StatusAccepted, gin.H{"id": e.ID, "status": e.Status})
		return
	}

	mctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	if err := h.mailer.Send(mctx, e); err != nil {
		logger.Errorw("enquiry mail failed", "id", e.ID, "error", err)
		h.finish(ctx, e, enquiries.StatusFailed, err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver enquiry", "id": e.ID})
		return
	}
	h.finish(ctx, e, enquiries.StatusSent, "")
	c.JSON(http.StatusOK, gin.H{"id": e.ID, "status": e.Status})
}

func (h *ContactHandler) finish(ctx context.Context, e *enquiries.Enquiry, status, errMsg string) {
	e.Status, e.Error = status, errMsg
	metrics.ContactMessages.WithLabelValues(status).Inc()
	if err := h.archive.Save(ctx, e); err != nil {
		logger.Warnf("update enquiry %s status: %v", e.ID, err)
	}
}
