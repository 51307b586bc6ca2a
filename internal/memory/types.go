package memory

// PassThreshold is the normalized quality at which an answer counts as a pass.
const PassThreshold = 0.6

// InitialEase is the ease factor assigned on first exposure to an item.
const InitialEase = 2.5

// MinEase is the floor the ease factor can never regress below.
const MinEase = 1.3

// Config holds the tunable parameters of the memory model.
type Config struct {
	// MaxIntervalDays caps how far out a review can be scheduled.
	MaxIntervalDays int `json:"max_interval_days"`
	// FailEasePenalty is subtracted from ease on a failed review.
	FailEasePenalty float64 `json:"fail_ease_penalty"`
	// RelearnIntervalDays is the interval an item falls back to after a failure.
	RelearnIntervalDays int `json:"relearn_interval_days"`
	// FirstIntervalDays and SecondIntervalDays are the fixed intervals for the
	// first two consecutive successful reviews.
	FirstIntervalDays  int `json:"first_interval_days"`
	SecondIntervalDays int `json:"second_interval_days"`

	// Priority weights. Priority grows with overdue days and consecutive
	// fails and shrinks as ease grows.
	OverdueWeight float64 `json:"overdue_weight"`
	FailWeight    float64 `json:"fail_weight"`
	EaseWeight    float64 `json:"ease_weight"`
	// NewItemBoost is added for items that have never been reviewed.
	NewItemBoost float64 `json:"new_item_boost"`
}

// DefaultConfig returns the standard model parameters.
func DefaultConfig() *Config {
	return &Config{
		MaxIntervalDays:     365,
		FailEasePenalty:     0.2,
		RelearnIntervalDays: 1,
		FirstIntervalDays:   1,
		SecondIntervalDays:  6,
		OverdueWeight:       1.0,
		FailWeight:          2.0,
		EaseWeight:          1.0,
		NewItemBoost:        0.5,
	}
}
