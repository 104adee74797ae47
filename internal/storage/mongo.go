package storage

import (
	"context"
	"errors"
	"fmt"

	"xjsf/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

// rosterDocumentID keys the single roster document in its collection.
const rosterDocumentID = "roster"

type rosterDocument struct {
	ID            string `bson:"_id"`
	models.Roster `bson:",inline"`
}

// MongoSource keeps the roster as one document in a MongoDB collection.
// Commands are traced through otelmongo.
type MongoSource struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoSource(ctx context.Context, uri, database, collection string) (*MongoSource, error) {
	if uri == "" || database == "" {
		return nil, fmt.Errorf("uri and database are required for MongoDB roster")
	}
	if collection == "" {
		collection = "clients"
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect: %w", ErrSourceUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrSourceUnavailable, err)
	}

	return &MongoSource{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

func (ms *MongoSource) LoadRoster(ctx context.Context) (*models.Roster, error) {
	var doc rosterDocument
	err := ms.coll.FindOne(ctx, bson.M{"_id": rosterDocumentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRosterNotFound
		}
		return nil, fmt.Errorf("failed to read roster document: %w", err)
	}

	roster := doc.Roster
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	return &roster, nil
}

// SaveRoster replaces the roster document, creating it if needed.
func (ms *MongoSource) SaveRoster(ctx context.Context, roster *models.Roster) error {
	if err := roster.Validate(); err != nil {
		return err
	}
	doc := rosterDocument{ID: rosterDocumentID, Roster: *roster}
	_, err := ms.coll.ReplaceOne(ctx, bson.M{"_id": rosterDocumentID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save roster document: %w", err)
	}
	return nil
}

func (ms *MongoSource) Close() error {
	return ms.client.Disconnect(context.Background())
}
