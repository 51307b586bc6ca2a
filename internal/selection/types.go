package selection

import (
	"context"
	"time"

	"review-service/internal/models"
)

// Batch size limits. Requested sizes outside the range are clipped.
const (
	DefaultBatchSize = 10
	MaxBatchSize     = 50
)

// Options-per-question limits.
const (
	DefaultOptionsCount = 4
	MinOptionsCount     = 2
)

// ItemSource is the slice of the item store the selector needs.
type ItemSource interface {
	FindDue(ctx context.Context, userID string, now time.Time) ([]models.LearningItem, error)
}

// Candidate is one potential distractor with explicit provenance, either the
// learner's own material (source "user") or the curated pool (source "pool").
type Candidate struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// UserCandidate tags a candidate as learner-owned.
func UserCandidate(id, text string) Candidate {
	return Candidate{ID: id, Text: text, Source: models.OptionSourceUser}
}

// PoolCandidate tags a candidate as pool-sourced.
func PoolCandidate(id, text string) Candidate {
	return Candidate{ID: id, Text: text, Source: models.OptionSourcePool}
}
