package repository

import (
	"context"

	"review-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PoolRepository manages the curated global distractor pool. Learners only
// read it; inserts come from the admin surface.
type PoolRepository struct {
	Col *mongo.Collection
}

func NewPoolRepository(db *mongo.Database) *PoolRepository {
	return &PoolRepository{Col: db.Collection("pool_entries")}
}

// SampleDistractors draws up to count random pool entries whose ids are not
// in excludeIDs.
func (r *PoolRepository) SampleDistractors(ctx context.Context, excludeIDs []string, count int) ([]models.PoolEntry, error) {
	if count <= 0 {
		return nil, nil
	}
	match := bson.M{}
	if len(excludeIDs) > 0 {
		match["_id"] = bson.M{"$nin": excludeIDs}
	}
	cur, err := r.Col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sample", Value: bson.M{"size": count}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var entries []models.PoolEntry
	for cur.Next(ctx) {
		var e models.PoolEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, cur.Err()
}

func (r *PoolRepository) Insert(ctx context.Context, entry *models.PoolEntry) error {
	_, err := r.Col.InsertOne(ctx, entry)
	return err
}

// FindAll returns the full pool, used by the cache layer to sample locally.
func (r *PoolRepository) FindAll(ctx context.Context) ([]models.PoolEntry, error) {
	cur, err := r.Col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var entries []models.PoolEntry
	for cur.Next(ctx) {
		var e models.PoolEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, cur.Err()
}
