// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package mongo provides a DocumentStore on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sigil-dev/ragd/internal/store"
)

// CollectionName is the collection documents are written to.
const CollectionName = "documents"

func init() {
	store.RegisterDocumentBackend("mongo", func(ctx context.Context, cfg store.Config) (store.DocumentStore, error) {
		ds, err := NewDocumentStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("creating document store: %w", err)
		}
		return ds, nil
	})
}

// Compile-time interface check.
var _ store.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements store.DocumentStore on a MongoDB collection.
type DocumentStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type record struct {
	ID        string    `bson:"_id"`
	IndexID   int64     `bson:"index_id"`
	Title     string    `bson:"title"`
	Source    string    `bson:"source"`
	Text      string    `bson:"text"`
	Embedding []float32 `bson:"embedding,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// NewDocumentStore connects to uri and verifies the connection.
func NewDocumentStore(ctx context.Context, uri, database string) (*DocumentStore, error) {
	if uri == "" || database == "" {
		return nil, fmt.Errorf("%w: mongo uri and database are required", store.ErrInvalidInput)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return &DocumentStore{
		client: client,
		coll:   client.Database(database).Collection(CollectionName),
	}, nil
}

func toRecord(doc *store.Document) record {
	r := record{
		ID:        doc.ID,
		IndexID:   doc.IndexID,
		Title:     doc.Title,
		Source:    doc.Source,
		Text:      doc.Text,
		Embedding: doc.Vector,
		CreatedAt: doc.CreatedAt.UTC(),
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}

func (r record) document() *store.Document {
	return &store.Document{
		ID:        r.ID,
		IndexID:   r.IndexID,
		Title:     r.Title,
		Source:    r.Source,
		Text:      r.Text,
		Vector:    r.Embedding,
		CreatedAt: r.CreatedAt,
	}
}

// Insert stores doc and returns its id.
func (d *DocumentStore) Insert(ctx context.Context, doc *store.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: nil document", store.ErrInvalidInput)
	}

	r := toRecord(doc)
	if _, err := d.coll.InsertOne(ctx, r); err != nil {
		return "", fmt.Errorf("inserting document %s: %w", r.ID, err)
	}
	return r.ID, nil
}

// List returns documents oldest first without their embeddings.
func (d *DocumentStore) List(ctx context.Context, opts store.ListOpts) ([]*store.Document, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "index_id", Value: 1}}).
		SetProjection(bson.D{{Key: "embedding", Value: 0}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := d.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []*store.Document
	for cur.Next(ctx) {
		var r record
		if err := cur.Decode(&r); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		docs = append(docs, r.document())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Count returns the number of stored documents.
func (d *DocumentStore) Count(ctx context.Context) (int, error) {
	n, err := d.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return int(n), nil
}

// Close disconnects the client.
func (d *DocumentStore) Close() error {
	return d.client.Disconnect(context.Background())
}
