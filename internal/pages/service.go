package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrSectionKey    = errors.New("every section needs a unique key")
)

// Service renders and edits pages. Raw HTML inside markdown is dropped by the
// renderer, so editors cannot inject markup into the public site.
type Service struct {
	repo Repository
	md   goldmark.Markdown
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	return &Service{repo: repo, md: md, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Page, error) {
	return s.repo.List(ctx)
}

// Get returns the page with every section body rendered to HTML.
func (s *Service) Get(ctx context.Context, slug string) (*View, error) {
	slug, err := NormalizeSlug(slug)
	if err != nil {
		return nil, ErrNotFound
	}
	p, err := s.repo.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	v := &View{Slug: p.Slug, Title: p.Title, UpdatedAt: p.UpdatedAt, Sections: make([]SectionView, 0, len(p.Sections))}
	for _, sec := range p.Sections {
		body, err := s.Render(sec.Body)
		if err != nil {
			return nil, err
		}
		v.Sections = append(v.Sections, SectionView{Section: sec, BodyHTML: body})
	}
	return v, nil
}

// Render converts markdown to HTML.
func (s *Service) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Put creates or replaces a page.
func (s *Service) Put(ctx context.Context, slug, title string, sections []Section, editor string) (*Page, error) {
	slug, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	seen := make(map[string]bool, len(sections))
	for i := range sections {
		k := strings.TrimSpace(sections[i].Key)
		if k == "" || seen[k] {
			return nil, fmt.Errorf("%w: %q", ErrSectionKey, k)
		}
		seen[k] = true
		sections[i].Key = k
	}
	if sections == nil {
		sections = []Section{}
	}
	p := &Page{Slug: slug, Title: title, Sections: sections, UpdatedBy: editor, UpdatedAt: s.now().UTC()}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
