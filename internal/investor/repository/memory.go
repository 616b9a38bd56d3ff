package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/corpsite/corpsite-api/internal/investor"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("document not found")
)

// Repository persists investor documents. List results come back in insertion
// order, which the ranking relies on for undated entries.
type Repository interface {
	Create(ctx context.Context, doc *investor.Document) (string, error)
	Get(ctx context.Context, id string) (*investor.Document, error)
	ListBySection(ctx context.Context, section string) ([]investor.Document, error)
	Update(ctx context.Context, id string, p investor.Patch) (*investor.Document, error)
	Delete(ctx context.Context, id string) error
}

// MemoryRepo is an in-memory repository used when MongoDB is not configured
// and in unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	order []string
	store map[string]*investor.Document
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*investor.Document), now: time.Now}
}

func (m *MemoryRepo) Create(_ context.Context, doc *investor.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, dup := m.store[doc.ID]; dup {
		return "", errors.New("duplicate document id")
	}
	stamp := m.now().UTC().Format(time.RFC3339Nano)
	if doc.CreatedAt == "" {
		doc.CreatedAt = stamp
	}
	doc.UpdatedAt = stamp
	cp := *doc
	m.store[doc.ID] = &cp
	m.order = append(m.order, doc.ID)
	return doc.ID, nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*investor.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListBySection(_ context.Context, section string) ([]investor.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]investor.Document, 0, len(m.order))
	for _, id := range m.order {
		if d := m.store[id]; d.Section == section {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *MemoryRepo) Update(_ context.Context, id string, p investor.Patch) (*investor.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := *d
	p.Apply(&next)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.UpdatedAt = m.now().UTC().Format(time.RFC3339Nano)
	m.store[id] = &next
	cp := next
	return &cp, nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
