package models

import "time"

// Option sources for a review question.
const (
	OptionSourceUser = "user"
	OptionSourcePool = "pool"
)

// ReviewOption is one answer choice in a multiple-choice review question.
// IsCorrect is never serialized to clients; the handler strips it via the
// json tag and the correct position travels in ReviewQuestion.CorrectIndex.
type ReviewOption struct {
	ID        string `bson:"id" json:"id"`
	Text      string `bson:"text" json:"text"`
	Source    string `bson:"source" json:"source"`
	IsCorrect bool   `bson:"is_correct" json:"-"`
}

// ReviewQuestion is one question instance in a built batch. Transient, never
// persisted.
type ReviewQuestion struct {
	ItemID       string         `json:"item_id"`
	Prompt       string         `json:"prompt"`
	Options      []ReviewOption `json:"options"`
	CorrectIndex int            `json:"correct_index"`
	Ease         *float64       `json:"ease,omitempty"`
}

// ReviewAnswer is one recorded submission for a learning item.
type ReviewAnswer struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	UserID          string    `bson:"user_id" json:"user_id"`
	ItemID          string    `bson:"item_id" json:"item_id"`
	Quality         float64   `bson:"quality" json:"quality"`
	IsCorrect       bool      `bson:"is_correct" json:"is_correct"`
	GivenAnswer     string    `bson:"given_answer,omitempty" json:"given_answer,omitempty"`
	TimeSpentMillis int64     `bson:"time_spent_millis" json:"time_spent_millis"`
	AnsweredAt      time.Time `bson:"answered_at" json:"answered_at"`
}

// SubmitReviewResult is what a graded submission returns to the caller.
type SubmitReviewResult struct {
	NextReviewAt time.Time `json:"next_review_at"`
	NewEase      float64   `json:"new_ease"`
	IsLapse      bool      `json:"is_lapse"`
}

// ReviewStats summarizes a learner's review activity.
type ReviewStats struct {
	UserID        string `json:"user_id"`
	DueCount      int64  `json:"due_count"`
	TotalAnswers  int64  `json:"total_answers"`
	TotalCorrect  int64  `json:"total_correct"`
	TotalItems    int64  `json:"total_items"`
	TotalLapses   int64  `json:"total_lapses"`
	LearnedItems  int64  `json:"learned_items"`
	ReviewedToday int64  `json:"reviewed_today"`
}
