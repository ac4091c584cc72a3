package mongo_kv_pairs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ kv_pairs.Repository[any] = &mongoKVPairs[any]{}

type mongoKVPairs[V any] struct {
	client  *mongo.Client
	coll    *mongo.Collection
	metrics *metrics
}

type document[V any] struct {
	Key      string    `bson:"key"`
	Value    V         `bson:"value,omitempty"`
	Modified time.Time `bson:"modified"`
}

func New[V any](client *mongo.Client, database, collection string) *mongoKVPairs[V] {
	return &mongoKVPairs[V]{
		client:  client,
		coll:    client.Database(database).Collection(collection),
		metrics: newMetrics(),
	}
}

// EnsureIndexes creates the unique index on key. Safe to call repeatedly.
func (repo *mongoKVPairs[V]) EnsureIndexes(ctx context.Context) error {
	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("key_unique"),
	})
	if err != nil {
		return fmt.Errorf("creating key index: %w", err)
	}
	return nil
}

func (repo *mongoKVPairs[V]) Metrics() []prometheus.Collector {
	return repo.metrics.list()
}

func (repo *mongoKVPairs[V]) Get(ctx context.Context, key string) (resKV model.KVPair[V], resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	doc := document[V]{}
	err := repo.coll.FindOne(ctx, bson.D{{Key: "key", Value: key}}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return model.KVPair[V]{}, model.KeyNotFoundError{Key: key}
	case err != nil:
		return model.KVPair[V]{}, fmt.Errorf("finding document: %w", err)
	}

	value := doc.Value
	if v, ok := normalize(any(doc.Value)).(V); ok {
		value = v
	}

	return model.KVPair[V]{
		Key:      doc.Key,
		Value:    value,
		Modified: doc.Modified,
	}, nil
}

func (repo *mongoKVPairs[V]) AddOrUpdate(ctx context.Context, kvp model.KVPair[V]) (resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	_, err := repo.coll.UpdateOne(
		ctx,
		bson.D{{Key: "key", Value: kvp.Key}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "value", Value: kvp.Value},
			{Key: "modified", Value: kvp.Modified},
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	return nil
}

func (repo *mongoKVPairs[V]) Remove(ctx context.Context, key string) (resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	if _, err := repo.coll.DeleteOne(ctx, bson.D{{Key: "key", Value: key}}); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	return nil
}

func (repo *mongoKVPairs[V]) GetAllNoValue(ctx context.Context) (resKVs []model.KVPair[V], resErr error) {
	defer func(ts time.Time) {
		repo.metrics.observe(ts, resErr)
	}(time.Now())

	cur, err := repo.coll.Find(
		ctx,
		bson.D{},
		options.Find().
			SetProjection(bson.D{
				{Key: "_id", Value: 0},
				{Key: "key", Value: 1},
				{Key: "modified", Value: 1},
			}).
			SetSort(bson.D{{Key: "key", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("finding documents: %w", err)
	}

	docs := []document[V]{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("reading cursor: %w", err)
	}

	return lo.Map(docs, func(el document[V], _ int) model.KVPair[V] {
		return model.KVPair[V]{Key: el.Key, Modified: el.Modified}
	}), nil
}

func (repo *mongoKVPairs[V]) Close(ctx context.Context) error {
	if err := repo.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting: %w", err)
	}
	return nil
}

// normalize turns driver container types into plain maps and slices,
// so decoded documents look the same as JSON-decoded ones.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.D:
		res := make(map[string]any, len(t))
		for _, el := range t {
			res[el.Key] = normalize(el.Value)
		}
		return res
	case primitive.M:
		res := make(map[string]any, len(t))
		for k, el := range t {
			res[k] = normalize(el)
		}
		return res
	case primitive.A:
		return lo.Map([]any(t), func(el any, _ int) any {
			return normalize(el)
		})
	case primitive.DateTime:
		return t.Time()
	default:
		return v
	}
}
