package models

import "time"

// LearningItem is one learner's memory state for one learnable unit.
// Unique per (user_id, item_id).
type LearningItem struct {
	ID               string     `bson:"_id,omitempty" json:"id"`
	UserID           string     `bson:"user_id" json:"user_id"`
	ItemID           string     `bson:"item_id" json:"item_id"`
	Ease             float64    `bson:"ease" json:"ease"`
	IntervalDays     int        `bson:"interval_days" json:"interval_days"`
	Repetitions      int        `bson:"repetitions" json:"repetitions"`
	Lapses           int        `bson:"lapses" json:"lapses"`
	ConsecutiveFails int        `bson:"consecutive_fails" json:"consecutive_fails"`
	NextReviewAt     time.Time  `bson:"next_review_at" json:"next_review_at"`
	LastReviewedAt   *time.Time `bson:"last_reviewed_at,omitempty" json:"last_reviewed_at,omitempty"`
	Priority         float64    `bson:"priority" json:"priority"`
	Version          int        `bson:"version" json:"version"`
	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updated_at"`
}

// IsDue reports whether the item is due for review at the given time.
func (li *LearningItem) IsDue(now time.Time) bool {
	return !li.NextReviewAt.After(now)
}

// DaysOverdue returns how many full days past due the item is, never negative.
func (li *LearningItem) DaysOverdue(now time.Time) float64 {
	overdue := now.Sub(li.NextReviewAt).Hours() / 24
	if overdue < 0 {
		return 0
	}
	return overdue
}
