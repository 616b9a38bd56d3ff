package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfBody = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	mp3Body = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x0a"), bytes.Repeat([]byte{0}, 64)...)
)

func newTestUploader(max int64) (*Uploader, *LocalStore) {
	store := NewLocalStoreFs(afero.NewMemMapFs(), "/uploads/")
	u := NewUploader(store, max)
	u.newID = func() string { return "fixed-id" }
	return u, store
}

func TestUpload_PDF(t *testing.T) {
	u, store := newTestUploader(1 << 20)
	ctx := context.Background()

	obj, err := u.Upload(ctx, KindPDF, bytes.NewReader(pdfBody), int64(len(pdfBody)))
	require.NoError(t, err)
	assert.Equal(t, "pdf/fixed-id.pdf", obj.Key)
	assert.Equal(t, "/uploads/pdf/fixed-id.pdf", obj.URL)
	assert.Equal(t, "application/pdf", obj.ContentType)

	rc, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pdfBody, got)
}

func TestUpload_AudioInferredKind(t *testing.T) {
	u, _ := newTestUploader(0)
	obj, err := u.Upload(context.Background(), "", bytes.NewReader(mp3Body), int64(len(mp3Body)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "audio/fixed-id"))
	assert.True(t, strings.HasPrefix(obj.ContentType, "audio/"))
}

func TestUpload_Rejections(t *testing.T) {
	u, _ := newTestUploader(32)
	ctx := context.Background()

	_, err := u.Upload(ctx, KindPDF, bytes.NewReader(pdfBody), int64(len(pdfBody)))
	require.ErrorIs(t, err, ErrTooLarge)

	u, _ = newTestUploader(1 << 20)
	_, err = u.Upload(ctx, KindAudio, bytes.NewReader(pdfBody), int64(len(pdfBody)))
	require.ErrorIs(t, err, ErrUnsupportedMedia)

	text := []byte("just some text, not a report")
	_, err = u.Upload(ctx, "", bytes.NewReader(text), int64(len(text)))
	require.ErrorIs(t, err, ErrUnsupportedMedia)

	_, err = u.Upload(ctx, "video", bytes.NewReader(pdfBody), int64(len(pdfBody)))
	require.ErrorIs(t, err, ErrUnsupportedMedia)

	_, err = u.Upload(ctx, KindPDF, bytes.NewReader(nil), 0)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestLocalStore_OpenAndDelete(t *testing.T) {
	store := NewLocalStoreFs(afero.NewMemMapFs(), "/uploads")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "pdf/a.pdf", bytes.NewReader(pdfBody), int64(len(pdfBody)), "application/pdf"))
	_, err := store.Open(ctx, "pdf")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "pdf/a.pdf"))
	_, err = store.Open(ctx, "pdf/a.pdf")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "pdf/a.pdf"), ErrNotFound)
}

func TestCleanKey(t *testing.T) {
	cases := map[string]string{
		"/pdf/a.pdf":          "pdf/a.pdf",
		"pdf/a.pdf":           "pdf/a.pdf",
		"/../../etc/passwd":   "etc/passwd",
		"/pdf/../audio/x.mp3": "audio/x.mp3",
		"/":                   "",
		"":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanKey(in), in)
	}
}

func TestNewMinIOStore_RequiresEndpoint(t *testing.T) {
	_, err := NewMinIOStore(nil)
	require.Error(t, err)
}
