package repository

import (
	"context"
	"errors"
	"time"

	"github.com/corpsite/corpsite-api/internal/investor"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores investor documents in a MongoDB collection keyed by the
// string "id" field. Listing sorts on createdAt then _id so the result follows
// insertion order.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "section", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, doc *investor.Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if doc.CreatedAt == "" {
		doc.CreatedAt = stamp
	}
	doc.UpdatedAt = stamp
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*investor.Document, error) {
	var d investor.Document
	if err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) ListBySection(ctx context.Context, section string) ([]investor.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"section": section}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []investor.Document{}
	for cur.Next(ctx) {
		var d investor.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Update(ctx context.Context, id string, p investor.Patch) (*investor.Document, error) {
	cur, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Apply(cur)
	if err := cur.Validate(); err != nil {
		return nil, err
	}
	cur.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	set := bson.M{
		"title":         cur.Title,
		"pdfUrl":        cur.PDFURL,
		"audioUrl":      cur.AudioURL,
		"link":          cur.Link,
		"year":          cur.Year,
		"publishedDate": cur.PublishedDate,
		"updatedAt":     cur.UpdatedAt,
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return cur, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
