package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dhuston/livingmap/pkg/sim"
)

const (
	mongoDefaultDatabase   = "livingmap"
	mongoDefaultCollection = "snapshots"
)

// MongoStore persists snapshots in MongoDB, one document per view.
// Used by server deployments where snapshots outlive the process.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoOptions configures the MongoDB connection.
type MongoOptions struct {
	URI        string
	Database   string // defaults to "livingmap"
	Collection string // defaults to "snapshots"
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Database == "" {
		opts.Database = mongoDefaultDatabase
	}
	if opts.Collection == "" {
		opts.Collection = mongoDefaultCollection
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, err
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

// Save upserts the snapshot document for a view.
func (s *MongoStore) Save(ctx context.Context, viewID string, positions map[string]sim.Position) error {
	snap := Snapshot{
		ViewID:    viewID,
		Positions: positions,
		UpdatedAt: time.Now(),
	}
	_, err := s.collection.ReplaceOne(
		ctx,
		bson.M{"view_id": viewID},
		snap,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Load fetches the snapshot document for a view.
func (s *MongoStore) Load(ctx context.Context, viewID string) (*Snapshot, bool, error) {
	var snap Snapshot
	err := s.collection.FindOne(ctx, bson.M{"view_id": viewID}).Decode(&snap)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

// Delete removes a view's snapshot document.
func (s *MongoStore) Delete(ctx context.Context, viewID string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"view_id": viewID})
	return err
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements SnapshotStore.
var _ SnapshotStore = (*MongoStore)(nil)
