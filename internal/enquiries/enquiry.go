// Package enquiries archives contact-form submissions so nothing is lost when
// mail delivery fails or SMTP is not configured.
package enquiries

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Delivery states of an enquiry.
const (
	StatusReceived = "received"
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusArchived = "archived" // no mailer configured
)

// Enquiry is the persisted form of a contact submission.
type Enquiry struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Company   string    `bson:"company,omitempty" json:"company,omitempty"`
	Subject   string    `bson:"subject,omitempty" json:"subject,omitempty"`
	Message   string    `bson:"message" json:"message"`
	Status    string    `bson:"status" json:"status"`
	Error     string    `bson:"error,omitempty" json:"-"`
	RemoteIP  string    `bson:"remoteIp,omitempty" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Archive persists enquiries.
type Archive interface {
	Save(ctx context.Context, e *Enquiry) error
	Get(ctx context.Context, id string) (*Enquiry, error)
}

func prepare(e *Enquiry) {
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.Status == "" {
		e.Status = StatusReceived
	}
	e.UpdatedAt = now
}

// MongoArchive upserts enquiries by id into the "enquiries" collection.
type MongoArchive struct {
	col *mongo.Collection
}

func NewMongoArchive(col *mongo.Collection) *MongoArchive {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), idx)
	return &MongoArchive{col: col}
}

// Save persists (upsert) the enquiry.
func (a *MongoArchive) Save(ctx context.Context, e *Enquiry) error {
	prepare(e)
	opts := options.Update().SetUpsert(true)
	if _, err := a.col.UpdateOne(ctx, bson.M{"id": e.ID}, bson.M{"$set": e}, opts); err != nil {
		return fmt.Errorf("save enquiry: %w", err)
	}
	return nil
}

// Get returns nil when not found.
func (a *MongoArchive) Get(ctx context.Context, id string) (*Enquiry, error) {
	var e Enquiry
	if err := a.col.FindOne(ctx, bson.M{"id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// MemoryArchive keeps enquiries in process.
type MemoryArchive struct {
	mu   sync.Mutex
	byID map[string]Enquiry
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{byID: map[string]Enquiry{}}
}

func (a *MemoryArchive) Save(_ context.Context, e *Enquiry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	prepare(e)
	a.byID[e.ID] = *e
	return nil
}

func (a *MemoryArchive) Get(_ context.Context, id string) (*Enquiry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.byID[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Len reports how many enquiries are stored.
func (a *MemoryArchive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byID)
}
