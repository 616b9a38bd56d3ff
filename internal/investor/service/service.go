package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corpsite/corpsite-api/internal/investor"
	"github.com/corpsite/corpsite-api/internal/investor/repository"
	"github.com/corpsite/corpsite-api/internal/ranking"
	"github.com/corpsite/corpsite-api/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrBadCreatedAt = errors.New("unparsable date")
)

// AllYears disables fiscal-year filtering when passed as the selected year.
const AllYears = "all"

// Listing is what an investor section page renders: the ranked documents, the
// year picker values and the year that was applied.
type Listing struct {
	Section      string              `json:"section"`
	Documents    []investor.Document `json:"documents"`
	Years        []string            `json:"years"`
	SelectedYear string              `json:"selectedYear"`
}

// Service defines the investor document operations used by the handler layer.
type Service interface {
	List(ctx context.Context, section, year string) (*Listing, error)
	Years(ctx context.Context, section string) ([]string, error)
	Get(ctx context.Context, id string) (*investor.Document, error)
	Create(ctx context.Context, d *investor.Document) (string, error)
	Import(ctx context.Context, d *investor.Document) (string, error)
	Update(ctx context.Context, id string, p investor.Patch) (*investor.Document, error)
	Delete(ctx context.Context, id string) error
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(col *mongo.Collection) Service {
	return New(repository.NewMongoRepo(col))
}

// New wraps any repository.
func New(repo repository.Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo repository.Repository
}

// List ranks the section's documents. An empty year selects the most recent
// fiscal year; AllYears returns every document.
func (s *service) List(ctx context.Context, section, year string) (*Listing, error) {
	if !investor.ValidSection(section) {
		return nil, investor.ErrUnknownSection
	}
	metrics.RankingRequests.WithLabelValues(section).Inc()
	docs, err := s.repo.ListBySection(ctx, section)
	if err != nil {
		return nil, err
	}
	selected := year
	switch year {
	case "":
		selected = ranking.DefaultYear(docs)
	case AllYears:
		selected = ""
	}
	return &Listing{
		Section:      section,
		Documents:    ranking.RankDocuments(docs, selected),
		Years:        ranking.FiscalYears(docs),
		SelectedYear: selected,
	}, nil
}

func (s *service) Years(ctx context.Context, section string) ([]string, error) {
	if !investor.ValidSection(section) {
		return nil, investor.ErrUnknownSection
	}
	docs, err := s.repo.ListBySection(ctx, section)
	if err != nil {
		return nil, err
	}
	return ranking.FiscalYears(docs), nil
}

func (s *service) Get(ctx context.Context, id string) (*investor.Document, error) {
	d, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return d, err
}

func (s *service) Create(ctx context.Context, d *investor.Document) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	// ids and timestamps are store-assigned
	d.ID, d.CreatedAt, d.UpdatedAt = "", "", ""
	return s.repo.Create(ctx, d)
}

// Import stores a document loaded from a seed or migration file. Unlike
// Create it keeps a supplied createdAt, which must parse as a CMS date.
func (s *service) Import(ctx context.Context, d *investor.Document) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	if d.CreatedAt != "" {
		t, ok := ranking.ParseDate(d.CreatedAt)
		if !ok {
			return "", fmt.Errorf("%w: createdAt %q", ErrBadCreatedAt, d.CreatedAt)
		}
		d.CreatedAt = t.UTC().Format(time.RFC3339Nano)
	}
	d.ID, d.UpdatedAt = "", ""
	return s.repo.Create(ctx, d)
}

func (s *service) Update(ctx context.Context, id string, p investor.Patch) (*investor.Document, error) {
	d, err := s.repo.Update(ctx, id, p)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return d, err
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
