package repository

import (
	"context"
	"errors"
	"time"

	"review-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LearningItemRepository struct {
	Col *mongo.Collection
}

func NewLearningItemRepository(db *mongo.Database) *LearningItemRepository {
	return &LearningItemRepository{Col: db.Collection("learning_items")}
}

// EnsureIndexes creates the unique (user_id, item_id) index plus the due-scan
// index. Called once at startup.
func (r *LearningItemRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "item_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "next_review_at", Value: 1}},
		},
	})
	return err
}

// FindDue returns all of a user's items whose next review time has passed.
func (r *LearningItemRepository) FindDue(ctx context.Context, userID string, now time.Time) ([]models.LearningItem, error) {
	cur, err := r.Col.Find(ctx, bson.M{
		"user_id":        userID,
		"next_review_at": bson.M{"$lte": now},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var items []models.LearningItem
	for cur.Next(ctx) {
		var item models.LearningItem
		if err := cur.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, cur.Err()
}

func (r *LearningItemRepository) Get(ctx context.Context, userID, itemID string) (*models.LearningItem, error) {
	var item models.LearningItem
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID, "item_id": itemID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert writes an item's state using its version as a compare-and-set token.
// New items (version 0) are inserted; existing items only match when nobody
// else has written since the read. A lost race surfaces as ErrConflict so the
// caller can re-read and reapply.
func (r *LearningItemRepository) Upsert(ctx context.Context, item *models.LearningItem) error {
	filter := bson.M{
		"user_id": item.UserID,
		"item_id": item.ItemID,
		"version": item.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"ease":              item.Ease,
			"interval_days":     item.IntervalDays,
			"repetitions":       item.Repetitions,
			"lapses":            item.Lapses,
			"consecutive_fails": item.ConsecutiveFails,
			"next_review_at":    item.NextReviewAt,
			"last_reviewed_at":  item.LastReviewedAt,
			"priority":          item.Priority,
			"updated_at":        item.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": item.CreatedAt},
		"$inc":         bson.M{"version": 1},
	}
	opts := options.Update().SetUpsert(item.Version == 0)
	res, err := r.Col.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// Another writer inserted the same (user, item) first.
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConflict
	}
	item.Version++
	return nil
}

// CountDue returns how many of a user's items are due at the given time.
func (r *LearningItemRepository) CountDue(ctx context.Context, userID string, now time.Time) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{
		"user_id":        userID,
		"next_review_at": bson.M{"$lte": now},
	})
}

// CountByUser returns the user's total tracked items and the subset that has
// at least one successful review behind it.
func (r *LearningItemRepository) CountByUser(ctx context.Context, userID string) (total, learned int64, err error) {
	total, err = r.Col.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, 0, err
	}
	learned, err = r.Col.CountDocuments(ctx, bson.M{
		"user_id":     userID,
		"repetitions": bson.M{"$gt": 0},
	})
	if err != nil {
		return 0, 0, err
	}
	return total, learned, nil
}

// SumLapses aggregates the user's lifetime lapse count across all items.
func (r *LearningItemRepository) SumLapses(ctx context.Context, userID string) (int64, error) {
	cur, err := r.Col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "lapses": bson.M{"$sum": "$lapses"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var result struct {
		Lapses int64 `bson:"lapses"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&result); err != nil {
			return 0, err
		}
	}
	return result.Lapses, cur.Err()
}
