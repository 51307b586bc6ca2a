package repository

import (
	"context"
	"errors"

	"review-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type VocabRepository struct {
	Col *mongo.Collection
}

func NewVocabRepository(db *mongo.Database) *VocabRepository {
	return &VocabRepository{Col: db.Collection("vocab_entries")}
}

func (r *VocabRepository) FindByID(ctx context.Context, id string) (*models.VocabEntry, error) {
	var entry models.VocabEntry
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *VocabRepository) Create(ctx context.Context, entry *models.VocabEntry) error {
	_, err := r.Col.InsertOne(ctx, entry)
	return err
}

// Update applies a partial update and reports ErrNotFound for unknown ids.
func (r *VocabRepository) Update(ctx context.Context, id string, update bson.M) error {
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *VocabRepository) Delete(ctx context.Context, id string) error {
	res, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByOwner returns the entries in a learner's personal vocabulary,
// optionally excluding one entry (the question's own answer).
func (r *VocabRepository) FindByOwner(ctx context.Context, ownerID string, excludeID string) ([]models.VocabEntry, error) {
	filter := bson.M{"owner_id": ownerID}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	cur, err := r.Col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var entries []models.VocabEntry
	for cur.Next(ctx) {
		var e models.VocabEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, cur.Err()
}
