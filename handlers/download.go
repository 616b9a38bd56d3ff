package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/corpsite/corpsite-api/internal/config"
	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/corpsite/corpsite-api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

var (
	ErrHostNotAllowed = errors.New("host not allowed")
	ErrRelativeURL    = errors.New("relative urls are fetched directly by the browser")
	ErrBadScheme      = errors.New("only http and https urls can be proxied")
)

var errTooLarge = errors.New("file too large")

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)

type downloadRequest struct {
	URL      string `json:"url" binding:"required"`
	Filename string `json:"filename"`
}

// DownloadProxy streams remote PDFs back as attachments so the browser saves
// them instead of opening a cross-origin viewer.
type DownloadProxy struct {
	client   *http.Client
	allowed  []string
	maxBytes int64
	// spool holds bodies of unknown length until they are known to fit
	spoolFs  afero.Fs
	spoolDir string
}

func NewDownloadProxy(cfg config.ProxyConfig) *DownloadProxy {
	p := &DownloadProxy{allowed: cfg.AllowedHosts, maxBytes: cfg.MaxBytes, spoolFs: afero.NewOsFs()}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	p.client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return p.checkURL(req.URL)
		},
	}
	return p
}

func (p *DownloadProxy) Register(r gin.IRouter, mw ...gin.HandlerFunc) {
	r.POST("/api/download-proxy", append(mw, p.Download)...)
}

// Validate parses raw and checks it may be proxied.
func (p *DownloadProxy) Validate(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, ErrRelativeURL
	}
	if err := p.checkURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (p *DownloadProxy) checkURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrBadScheme
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range p.allowed {
		if host == h || strings.HasSuffix(host, "."+h) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
}

// SanitizeFilename keeps a conservative character set and forces a .pdf suffix.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = name[:len(name)-4]
	}
	name = strings.Trim(unsafeFilename.ReplaceAllString(name, "_"), " ._-")
	if len(name) > 120 {
		name = name[:120]
	}
	if name == "" {
		name = "document"
	}
	return name + ".pdf"
}

func (p *DownloadProxy) Download(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := p.Validate(req.URL)
	if err != nil {
		metrics.ProxyDownloads.WithLabelValues("rejected").Inc()
		status := http.StatusBadRequest
		if errors.Is(err, ErrHostNotAllowed) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	filename := req.Filename
	if filename == "" {
		filename = path.Base(u.Path)
	}
	filename = SanitizeFilename(filename)

	resp, err := p.fetch(c.Request.Context(), u)
	if err != nil {
		metrics.ProxyDownloads.WithLabelValues("upstream_error").Inc()
		logger.Warnf("download proxy %s: %v", u.Host, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch file"})
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ProxyDownloads.WithLabelValues("upstream_status").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("upstream returned %d", resp.StatusCode)})
		return
	}
	if p.maxBytes > 0 && resp.ContentLength > p.maxBytes {
		metrics.ProxyDownloads.WithLabelValues("too_large").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": errTooLarge.Error()})
		return
	}

	body, size := io.Reader(resp.Body), resp.ContentLength
	if size < 0 && p.maxBytes > 0 {
		// no declared length: the cap must hold before the 200 goes out
		f, n, err := p.spool(resp.Body)
		switch {
		case errors.Is(err, errTooLarge):
			metrics.ProxyDownloads.WithLabelValues("too_large").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": errTooLarge.Error()})
			return
		case err != nil:
			metrics.ProxyDownloads.WithLabelValues("upstream_error").Inc()
			logger.Warnf("download proxy %s: %v", u.Host, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch file"})
			return
		}
		defer p.discard(f)
		body, size = f, n
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/pdf"
	}
	c.Header("Content-Type", ct)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if size >= 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}
	c.Status(http.StatusOK)
	n, err := io.Copy(c.Writer, body)
	if err != nil {
		// headers are gone already; nothing left but to log
		metrics.ProxyDownloads.WithLabelValues("aborted").Inc()
		logger.Warnf("download proxy copy after %d bytes: %v", n, err)
		return
	}
	metrics.ProxyDownloads.WithLabelValues("ok").Inc()
}

// spool copies at most maxBytes of r into a temporary file and rewinds it.
// It returns errTooLarge when r holds more.
func (p *DownloadProxy) spool(r io.Reader) (afero.File, int64, error) {
	f, err := afero.TempFile(p.spoolFs, p.spoolDir, "corpsite-download-*")
	if err != nil {
		return nil, 0, err
	}
	n, err := io.Copy(f, io.LimitReader(r, p.maxBytes+1))
	if err == nil && n > p.maxBytes {
		err = errTooLarge
	}
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		p.discard(f)
		return nil, 0, err
	}
	return f, n, nil
}

func (p *DownloadProxy) discard(f afero.File) {
	_ = f.Close()
	if err := p.spoolFs.Remove(f.Name()); err != nil {
		logger.Warnf("remove download spool %s: %v", f.Name(), err)
	}
}

func (p *DownloadProxy) fetch(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")
	return p.client.Do(req)
}
