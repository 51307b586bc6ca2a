package selection

import (
	"errors"
	"fmt"
	"testing"

	"review-service/internal/models"
)

func testEntry() *models.VocabEntry {
	return &models.VocabEntry{
		ID:         "entry-1",
		Word:       "ephemeral",
		Definition: "lasting for a very short time",
	}
}

func userCands(n int) []Candidate {
	cands := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		cands = append(cands, UserCandidate(
			fmt.Sprintf("user-entry-%d", i),
			fmt.Sprintf("user definition %d", i),
		))
	}
	return cands
}

func poolCands(n int) []Candidate {
	cands := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		cands = append(cands, PoolCandidate(
			fmt.Sprintf("pool-entry-%d", i),
			fmt.Sprintf("pool definition %d", i),
		))
	}
	return cands
}

func TestBuildQuestion_CorrectIndexPointsAtAnswer(t *testing.T) {
	composer := NewSeededOptionComposer(42)

	for seed := int64(0); seed < 20; seed++ {
		composer = NewSeededOptionComposer(seed)
		q, err := composer.BuildQuestion(testEntry(), nil, userCands(3), poolCands(3), 4)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		if len(q.Options) != 4 {
			t.Fatalf("seed %d: expected 4 options, got %d", seed, len(q.Options))
		}
		correct := q.Options[q.CorrectIndex]
		if !correct.IsCorrect {
			t.Errorf("seed %d: correct index %d points at a distractor", seed, q.CorrectIndex)
		}
		if correct.Text != testEntry().Definition {
			t.Errorf("seed %d: correct option text %q", seed, correct.Text)
		}
	}
}

func TestBuildQuestion_PrefersUserCandidates(t *testing.T) {
	composer := NewSeededOptionComposer(1)

	q, err := composer.BuildQuestion(testEntry(), nil, userCands(3), poolCands(5), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Plenty of user material: every distractor should come from it.
	for _, opt := range q.Options {
		if opt.IsCorrect {
			continue
		}
		if opt.Source != models.OptionSourceUser {
			t.Errorf("expected user-sourced distractor, got %q (%s)", opt.Text, opt.Source)
		}
	}
}

func TestBuildQuestion_PoolFillsShortfall(t *testing.T) {
	composer := NewSeededOptionComposer(1)

	q, err := composer.BuildQuestion(testEntry(), nil, userCands(1), poolCands(5), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(q.Options))
	}

	var userCount, poolCount int
	for _, opt := range q.Options {
		if opt.IsCorrect {
			continue
		}
		switch opt.Source {
		case models.OptionSourceUser:
			userCount++
		case models.OptionSourcePool:
			poolCount++
		}
	}
	if userCount != 1 || poolCount != 2 {
		t.Errorf("expected 1 user + 2 pool distractors, got %d user, %d pool", userCount, poolCount)
	}
}

func TestBuildQuestion_DedupesNormalizedText(t *testing.T) {
	composer := NewSeededOptionComposer(1)

	// Both candidates collide with the correct answer after normalization.
	dupes := []Candidate{
		UserCandidate("dup-1", "  Lasting for a   very short time "),
		UserCandidate("dup-2", "LASTING FOR A VERY SHORT TIME"),
		UserCandidate("ok-1", "happening every year"),
	}

	q, err := composer.BuildQuestion(testEntry(), nil, dupes, nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Options) != 2 {
		t.Fatalf("expected 2 options after dedupe, got %d", len(q.Options))
	}

	seen := map[string]bool{}
	for _, opt := range q.Options {
		key := normalizeText(opt.Text)
		if seen[key] {
			t.Errorf("duplicate normalized option %q", opt.Text)
		}
		seen[key] = true
	}
}

func TestBuildQuestion_InsufficientOptions(t *testing.T) {
	composer := NewSeededOptionComposer(1)

	// New user, one word, empty pool: only the correct answer exists.
	_, err := composer.BuildQuestion(testEntry(), nil, nil, nil, 4)
	if !errors.Is(err, ErrInsufficientOptions) {
		t.Errorf("expected ErrInsufficientOptions, got %v", err)
	}

	// A single distractor is enough for a valid two-option question.
	q, err := composer.BuildQuestion(testEntry(), nil, userCands(1), nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Options) != 2 {
		t.Errorf("expected 2 options, got %d", len(q.Options))
	}
}

func TestBuildQuestion_DefaultsBadOptionsCount(t *testing.T) {
	composer := NewSeededOptionComposer(1)

	q, err := composer.BuildQuestion(testEntry(), nil, userCands(6), poolCands(6), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Options) != DefaultOptionsCount {
		t.Errorf("expected %d options for an invalid request, got %d", DefaultOptionsCount, len(q.Options))
	}
}

func TestBuildQuestion_CarriesEaseFromState(t *testing.T) {
	composer := NewSeededOptionComposer(1)

	state := &models.LearningItem{Ease: 2.18}
	q, err := composer.BuildQuestion(testEntry(), state, userCands(3), nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Ease == nil || *q.Ease != 2.18 {
		t.Errorf("expected ease 2.18 on question, got %v", q.Ease)
	}

	// No personal state: ease stays null.
	q, err = composer.BuildQuestion(testEntry(), nil, userCands(3), nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Ease != nil {
		t.Errorf("expected nil ease without state, got %v", *q.Ease)
	}
}
