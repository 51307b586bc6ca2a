package selection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"review-service/internal/memory"
	"review-service/internal/models"
)

// BatchSelector decides which due items enter a review session and in what
// order.
type BatchSelector struct {
	items ItemSource
	model *memory.Model
}

func NewBatchSelector(items ItemSource, model *memory.Model) *BatchSelector {
	return &BatchSelector{items: items, model: model}
}

// SelectBatch returns up to maxQuestions due items for the user, highest
// priority first. A request outside [1, MaxBatchSize] is clipped; zero or
// negative selects the default. An empty result is not an error, the user
// simply has nothing due.
func (s *BatchSelector) SelectBatch(ctx context.Context, userID string, maxQuestions int, now time.Time) ([]models.LearningItem, error) {
	if maxQuestions <= 0 {
		maxQuestions = DefaultBatchSize
	}
	if maxQuestions > MaxBatchSize {
		maxQuestions = MaxBatchSize
	}

	due, err := s.items.FindDue(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load due items: %w", err)
	}

	// Cached priorities may be stale; recompute against the current clock
	// before ranking.
	for i := range due {
		due[i].Priority = s.model.Priority(&due[i], now)
	}

	// Rank by priority, ties by earliest due time, then by item id so the
	// order is reproducible.
	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority > due[j].Priority
		}
		if !due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].NextReviewAt.Before(due[j].NextReviewAt)
		}
		return due[i].ItemID < due[j].ItemID
	})

	if len(due) > maxQuestions {
		due = due[:maxQuestions]
	}
	return due, nil
}
