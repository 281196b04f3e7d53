// Package mongo writes records to MongoDB with InsertMany. Each record becomes
// one document whose keys follow model.Record.Fields: empty strings are
// omitted and metrics are top-level integer fields.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

const appName = "logload"

func init() {
	open := func(ctx context.Context, uri string, log zerolog.Logger) (store.Store, error) {
		return Open(ctx, uri, log)
	}
	store.Register("mongodb", open)
	store.Register("mongodb+srv", open)
}

// Store shares one client across workers; the driver pools connections.
type Store struct {
	client *mongo.Client
	log    zerolog.Logger
}

func Open(ctx context.Context, uri string, log zerolog.Logger) (*Store, error) {
	opts := options.Client().ApplyURI(uri).SetAppName(appName)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("mongo uri: %w", err)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{client: client, log: log}, nil
}

func (s *Store) collection(t model.Target) *mongo.Collection {
	return s.client.Database(t.Database).Collection(t.Collection)
}

func (s *Store) BulkInsert(ctx context.Context, target model.Target, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = ToDocument(r)
	}
	res, err := s.collection(target).InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", target, err)
	}
	s.log.Debug().Int("rows", len(res.InsertedIDs)).Str("target", target.String()).Msg("insert many complete")
	return nil
}

// Migrate creates an ascending index on timestamp.
func (s *Store) Migrate(ctx context.Context, target model.Target) error {
	name, err := s.collection(target).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: model.FieldTimestamp, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.log.Info().Str("index", name).Str("target", target.String()).Msg("index ready")
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ToDocument converts r into an ordered BSON document.
func ToDocument(r *model.Record) bson.D {
	fields := r.Fields()
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		doc = append(doc, bson.E{Key: f.Key, Value: f.Value})
	}
	return doc
}
