package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/m2tx/dialogue_archiver/internal/config"
	"github.com/m2tx/dialogue_archiver/internal/model"
)

const defaultSetupTimeout = 10 * time.Second

// MongoDialogueRepository implements DialogueRepository using MongoDB.
type MongoDialogueRepository struct {
	client  *mongo.Client
	coll    collection
	timeout time.Duration
}

// OpenMongo connects to the configured deployment, binds the target
// collection and ensures its session_id index.
func OpenMongo(ctx context.Context, cfg config.Mongo) (*MongoDialogueRepository, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: connect: %w", err)
	}

	repo, err := NewMongoDialogueRepository(client, client.Database(cfg.Database), cfg.Collection, cfg.Timeout)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	setupCtx, cancel := context.WithTimeout(ctx, defaultSetupTimeout)
	defer cancel()
	if err := ensureIndexes(setupCtx, repo.coll); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("repository: ensure indexes: %w", err)
	}

	return repo, nil
}

// NewMongoDialogueRepository binds a repository to an already connected
// client. collectionName defaults to config.DefaultMongoCollection if empty.
func NewMongoDialogueRepository(client *mongo.Client, db *mongo.Database, collectionName string, timeout time.Duration) (*MongoDialogueRepository, error) {
	if db == nil {
		return nil, errors.New("repository: database is required")
	}
	if collectionName == "" {
		collectionName = config.DefaultMongoCollection
	}
	return newWithCollection(client, mongoCollection{coll: db.Collection(collectionName)}, timeout), nil
}

func newWithCollection(client *mongo.Client, coll collection, timeout time.Duration) *MongoDialogueRepository {
	return &MongoDialogueRepository{
		client:  client,
		coll:    coll,
		timeout: timeout,
	}
}

func (r *MongoDialogueRepository) Insert(ctx context.Context, doc model.SessionDocument) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("repository: insert session %q: %w", doc.SessionID, err)
	}

	return nil
}

func (r *MongoDialogueRepository) AppendTurn(ctx context.Context, sessionID string, turn model.Turn) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"session_id": sessionID}
	update := bson.M{"$push": bson.M{"dialogue": turn}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("repository: append turn to session %q: %w", sessionID, err)
	}

	return res.MatchedCount > 0, nil
}

// Find returns every document archived for sessionID, oldest first.
func (r *MongoDialogueRepository) Find(ctx context.Context, sessionID string) ([]model.SessionDocument, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"session_id": sessionID}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: find session %q: %w", sessionID, err)
	}

	docs := []model.SessionDocument{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repository: decode session %q: %w", sessionID, err)
	}

	return docs, nil
}

// Ping checks that the primary is reachable.
func (r *MongoDialogueRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return errors.New("repository: not connected")
	}
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoDialogueRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("repository: disconnect: %w", err)
	}
	return nil
}

func (r *MongoDialogueRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func ensureIndexes(ctx context.Context, coll collection) error {
	index := mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}},
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}

type collection interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (cursor, error)
	Indexes() indexView
}

type cursor interface {
	All(ctx context.Context, results any) error
}

type indexView interface {
	CreateOne(ctx context.Context, model mongo.IndexModel, opts ...*options.CreateIndexesOptions) (string, error)
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c mongoCollection) InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	return c.coll.InsertOne(ctx, document, opts...)
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}

func (c mongoCollection) Find(ctx context.Context, filter any, opts ...*options.FindOptions) (cursor, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func (c mongoCollection) Indexes() indexView {
	return c.coll.Indexes()
}
