// Package storage keeps uploaded investor PDFs and earnings-call audio either
// on local disk or in a MinIO bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/corpsite/corpsite-api/internal/config"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Upload kinds.
const (
	KindPDF   = "pdf"
	KindAudio = "audio"
)

var (
	ErrNotFound         = errors.New("object not found")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrTooLarge         = errors.New("file exceeds upload limit")
	ErrEmpty            = errors.New("empty file")
)

// sniffLen is how much of the body mimetype needs to recognise our formats.
const sniffLen = 3072

// Store is the object storage backend.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Object describes a stored upload.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// FromConfig builds the store selected by STORAGE_DRIVER.
func FromConfig(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "", "local":
		return NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	case "minio":
		return NewMinIOStore(&cfg.Storage)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Detect sniffs head and checks it against kind. An empty kind accepts either
// a PDF or audio and reports which one it was.
func Detect(kind string, head []byte) (resolvedKind, contentType, ext string, err error) {
	if len(head) == 0 {
		return "", "", "", ErrEmpty
	}
	mt := mimetype.Detect(head)
	isPDF := mt.Is("application/pdf")
	isAudio := strings.HasPrefix(mt.String(), "audio/")
	switch {
	case (kind == KindPDF || kind == "") && isPDF:
		return KindPDF, "application/pdf", ".pdf", nil
	case (kind == KindAudio || kind == "") && isAudio:
		return KindAudio, mt.String(), mt.Extension(), nil
	}
	return "", "", "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, mt.String())
}

// Uploader validates incoming files and writes them to a Store under
// "<kind>/<uuid><ext>".
type Uploader struct {
	store   Store
	maxSize int64
	newID   func() string
}

func NewUploader(store Store, maxSize int64) *Uploader {
	return &Uploader{store: store, maxSize: maxSize, newID: uuid.NewString}
}

// Upload stores r, whose declared length is size.
func (u *Uploader) Upload(ctx context.Context, kind string, r io.Reader, size int64) (*Object, error) {
	if kind != "" && kind != KindPDF && kind != KindAudio {
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupportedMedia, kind)
	}
	if u.maxSize > 0 && size > u.maxSize {
		return nil, ErrTooLarge
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	kind, contentType, ext, err := Detect(kind, head)
	if err != nil {
		return nil, err
	}

	key := kind + "/" + u.newID() + ext
	body := io.MultiReader(bytes.NewReader(head), r)
	if u.maxSize > 0 {
		body = io.LimitReader(body, u.maxSize)
	}
	if err := u.store.Put(ctx, key, body, size, contentType); err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}
	url, err := u.store.URL(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Object{Key: key, URL: url, Size: size, ContentType: contentType}, nil
}
