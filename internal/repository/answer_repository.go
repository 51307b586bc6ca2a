package repository

import (
	"context"
	"time"

	"review-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AnswerRepository struct {
	Col *mongo.Collection
}

func NewAnswerRepository(db *mongo.Database) *AnswerRepository {
	return &AnswerRepository{Col: db.Collection("review_answers")}
}

func (r *AnswerRepository) Create(ctx context.Context, answer *models.ReviewAnswer) error {
	if answer.ID == "" {
		answer.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.Col.InsertOne(ctx, answer)
	return err
}

// FindWrongAnswers returns the user's most recent incorrect submissions with
// a recorded answer text, newest first. These feed the personal-confusion
// distractor source.
func (r *AnswerRepository) FindWrongAnswers(ctx context.Context, userID string, limit int) ([]models.ReviewAnswer, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "answered_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.Col.Find(ctx, bson.M{
		"user_id":      userID,
		"is_correct":   false,
		"given_answer": bson.M{"$ne": ""},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var answers []models.ReviewAnswer
	for cur.Next(ctx) {
		var a models.ReviewAnswer
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, cur.Err()
}

// CountByUser returns total and correct submission counts.
func (r *AnswerRepository) CountByUser(ctx context.Context, userID string) (total, correct int64, err error) {
	total, err = r.Col.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, 0, err
	}
	correct, err = r.Col.CountDocuments(ctx, bson.M{"user_id": userID, "is_correct": true})
	if err != nil {
		return 0, 0, err
	}
	return total, correct, nil
}

// CountSince returns how many answers the user recorded at or after the cutoff.
func (r *AnswerRepository) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{
		"user_id":     userID,
		"answered_at": bson.M{"$gte": since},
	})
}
