package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// LocalStore keeps objects below a directory; the API serves them under baseURL.
type LocalStore struct {
	fs      afero.Fs
	baseURL string
}

// NewLocalStore roots the store at dir, creating it when missing.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	osfs := afero.NewOsFs()
	if err := osfs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return NewLocalStoreFs(afero.NewBasePathFs(osfs, dir), baseURL), nil
}

// NewLocalStoreFs uses an existing filesystem, e.g. afero.NewMemMapFs in tests.
func NewLocalStoreFs(fs afero.Fs, baseURL string) *LocalStore {
	return &LocalStore{fs: fs, baseURL: strings.TrimRight(baseURL, "/")}
}

// CleanKey normalises a request path into a store key. It returns "" for
// paths that try to leave the store root.
func CleanKey(p string) string {
	k := strings.TrimPrefix(path.Clean("/"+p), "/")
	if k == "" || k == "." {
		return ""
	}
	return k
}

func (s *LocalStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return err
	}
	f, err := s.fs.Create(key)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.Remove(key)
		return err
	}
	return f.Close()
}

// Open returns an afero.File, which also satisfies io.ReadSeeker for range requests.
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := s.fs.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *LocalStore) URL(_ context.Context, key string) (string, error) {
	return s.baseURL + "/" + key, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := s.fs.Remove(key)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
