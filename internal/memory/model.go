package memory

import (
	"errors"
	"fmt"
	"math"
	"time"

	"review-service/internal/models"
)

// ErrInvalidQuality is returned when a quality score falls outside [0, 1].
var ErrInvalidQuality = errors.New("quality must be in [0, 1]")

// Model computes spaced-repetition state transitions. All methods are pure:
// they take the current state and a clock value and return the next state
// without touching storage.
type Model struct {
	cfg *Config
}

// NewModel creates a memory model. A nil config selects DefaultConfig.
func NewModel(cfg *Config) *Model {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Model{cfg: cfg}
}

// NewItemState builds the default state for an item the learner has never
// reviewed. The item is due immediately.
func (m *Model) NewItemState(userID, itemID string, now time.Time) models.LearningItem {
	item := models.LearningItem{
		UserID:       userID,
		ItemID:       itemID,
		Ease:         InitialEase,
		IntervalDays: 0,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	item.Priority = m.Priority(&item, now)
	return item
}

// Update applies one graded answer to an item's memory state and returns the
// next state. Quality is a normalized score in [0, 1]; anything below
// PassThreshold counts as a failure.
func (m *Model) Update(item models.LearningItem, quality float64, now time.Time) (models.LearningItem, error) {
	if quality < 0 || quality > 1 || math.IsNaN(quality) {
		return models.LearningItem{}, fmt.Errorf("%w: got %v", ErrInvalidQuality, quality)
	}

	if quality < PassThreshold {
		item.Repetitions = 0
		item.Lapses++
		item.ConsecutiveFails++
		item.IntervalDays = m.cfg.RelearnIntervalDays
		item.Ease = math.Max(MinEase, item.Ease-m.cfg.FailEasePenalty)
	} else {
		item.ConsecutiveFails = 0
		item.Repetitions++
		item.Ease = math.Max(MinEase, item.Ease+easeDelta(quality))

		switch item.Repetitions {
		case 1:
			item.IntervalDays = m.cfg.FirstIntervalDays
		case 2:
			item.IntervalDays = m.cfg.SecondIntervalDays
		default:
			next := int(math.Round(float64(item.IntervalDays) * item.Ease))
			if next > m.cfg.MaxIntervalDays {
				next = m.cfg.MaxIntervalDays
			}
			item.IntervalDays = next
		}
	}

	reviewed := now
	item.LastReviewedAt = &reviewed
	item.NextReviewAt = now.AddDate(0, 0, item.IntervalDays)
	item.UpdatedAt = now
	item.Priority = m.Priority(&item, now)

	return item, nil
}

// IsPass reports whether a quality score counts as a successful recall.
func (m *Model) IsPass(quality float64) bool {
	return quality >= PassThreshold
}

// Priority scores how urgently an item should be reviewed. The score grows
// with overdue days and consecutive fails, shrinks as ease grows, and gives
// never-reviewed items a head start. Used only for ranking; callers may cache
// it but must recompute before sorting.
func (m *Model) Priority(item *models.LearningItem, now time.Time) float64 {
	p := m.cfg.OverdueWeight*item.DaysOverdue(now) +
		m.cfg.FailWeight*float64(item.ConsecutiveFails) +
		m.cfg.EaseWeight*(InitialEase-item.Ease)
	if item.LastReviewedAt == nil {
		p += m.cfg.NewItemBoost
	}
	return p
}

// easeDelta is the SM-2 ease adjustment for a passing answer, expressed over
// a normalized quality in [0.6, 1]. A perfect answer yields +0.1; weaker
// passes yield progressively smaller (possibly negative) deltas.
func easeDelta(quality float64) float64 {
	miss := 1 - quality
	return 0.1 - miss*(0.08+miss*0.02)
}
