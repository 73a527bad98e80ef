package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/report"
)

// Collection names and timeouts.
const (
	DefaultDatabase   = "isomatch"
	ReportsCollection = "reports"

	connectTimeout = 10 * time.Second
)

// MongoOptions configures a MongoDB-backed store.
type MongoOptions struct {
	URI      string
	Database string // DefaultDatabase when empty
}

// MongoStore stores reports in a MongoDB collection keyed by report ID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures the
// listing index exists.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "connect mongodb")
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "ping mongodb")
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(ReportsCollection),
	}
	_, err = s.coll.Indexes().CreateOne(cctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "create index")
	}
	return s, nil
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, r *report.Report) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: r.ID}},
		r,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errs.Wrap(errs.ErrCodeNetwork, err, "save report %s", r.ID)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id string) (*report.Report, error) {
	var r report.Report
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "get report %s", id)
	}
	return &r, nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context, limit int) ([]report.Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(listLimit(limit))).
		SetProjection(bson.D{
			{Key: "_id", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "targets", Value: 1},
			{Key: "stats", Value: 1},
		})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "list reports")
	}
	var out []report.Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "decode reports")
	}
	return out, nil
}

// Close implements Store.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
