package pages

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists pages keyed by slug.
type Repository interface {
	List(ctx context.Context) ([]Page, error)
	Get(ctx context.Context, slug string) (*Page, error)
	Upsert(ctx context.Context, p *Page) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) List(ctx context.Context) ([]Page, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "slug", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Page{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) Get(ctx context.Context, slug string) (*Page, error) {
	var p Page
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) Upsert(ctx context.Context, p *Page) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"slug": p.Slug}, p, options.Replace().SetUpsert(true))
	return err
}

// MemoryRepository keeps pages in process.
type MemoryRepository struct {
	mu    sync.RWMutex
	pages map[string]Page
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{pages: map[string]Page{}}
}

func (r *MemoryRepository) List(_ context.Context) ([]Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Page, 0, len(r.pages))
	for _, p := range r.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, slug string) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pages[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, p *Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[p.Slug] = *p
	return nil
}
