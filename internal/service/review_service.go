package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"review-service/internal/memory"
	"review-service/internal/models"
	"review-service/internal/repository"
	"review-service/internal/selection"
)

// ErrNoDueItems is returned by BuildSingleQuestion when the user has nothing
// due and no explicit item was requested.
var ErrNoDueItems = errors.New("no due items for user")

// ErrInvalidInput covers malformed request parameters other than the quality
// score, which memory.ErrInvalidQuality reports.
var ErrInvalidInput = errors.New("invalid input")

// How many recent wrong answers feed the personal-confusion distractor source.
const wrongAnswerLookback = 20

// ItemStore is the persistence surface for per-user memory state.
type ItemStore interface {
	FindDue(ctx context.Context, userID string, now time.Time) ([]models.LearningItem, error)
	Get(ctx context.Context, userID, itemID string) (*models.LearningItem, error)
	Upsert(ctx context.Context, item *models.LearningItem) error
	CountDue(ctx context.Context, userID string, now time.Time) (int64, error)
	CountByUser(ctx context.Context, userID string) (total, learned int64, err error)
	SumLapses(ctx context.Context, userID string) (int64, error)
}

// EntrySource resolves learnable content.
type EntrySource interface {
	FindByID(ctx context.Context, id string) (*models.VocabEntry, error)
	FindByOwner(ctx context.Context, ownerID string, excludeID string) ([]models.VocabEntry, error)
}

// PoolSource supplies curated distractors.
type PoolSource interface {
	SampleDistractors(ctx context.Context, excludeIDs []string, count int) ([]models.PoolEntry, error)
}

// AnswerLog records submissions and exposes the user's answer history.
type AnswerLog interface {
	Create(ctx context.Context, answer *models.ReviewAnswer) error
	FindWrongAnswers(ctx context.Context, userID string, limit int) ([]models.ReviewAnswer, error)
	CountByUser(ctx context.Context, userID string) (total, correct int64, err error)
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// ReviewService orchestrates batch building and answer processing. Current
// time flows through the injected clock so due computation stays testable.
type ReviewService struct {
	Items    ItemStore
	Entries  EntrySource
	Pool     PoolSource
	Answers  AnswerLog
	model    *memory.Model
	selector *selection.BatchSelector
	composer *selection.OptionComposer
	now      func() time.Time
}

func NewReviewService(items ItemStore, entries EntrySource, pool PoolSource, answers AnswerLog) *ReviewService {
	model := memory.NewModel(nil)
	return &ReviewService{
		Items:    items,
		Entries:  entries,
		Pool:     pool,
		Answers:  answers,
		model:    model,
		selector: selection.NewBatchSelector(items, model),
		composer: selection.NewOptionComposer(),
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *ReviewService) WithClock(now func() time.Time) *ReviewService {
	s.now = now
	return s
}

// WithComposer overrides the option composer, used to fix shuffle order in
// tests.
func (s *ReviewService) WithComposer(c *selection.OptionComposer) *ReviewService {
	s.composer = c
	return s
}

// BuildReviewBatch assembles up to questionsCount multiple-choice questions
// from the user's due items. Items that cannot form a valid question are
// skipped rather than failing the batch.
func (s *ReviewService) BuildReviewBatch(ctx context.Context, userID string, questionsCount, optionsCount int) ([]models.ReviewQuestion, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	now := s.now()

	due, err := s.selector.SelectBatch(ctx, userID, questionsCount, now)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return []models.ReviewQuestion{}, nil
	}

	userCands, err := s.userCandidates(ctx, userID)
	if err != nil {
		return nil, err
	}

	questions := make([]models.ReviewQuestion, 0, len(due))
	for i := range due {
		q, err := s.composeQuestion(ctx, &due[i], userCands, optionsCount)
		if errors.Is(err, selection.ErrInsufficientOptions) || errors.Is(err, repository.ErrNotFound) {
			// Entry was deleted or too little material; degrade by skipping.
			continue
		}
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, nil
}

// BuildSingleQuestion builds one question. With an empty itemID it picks the
// user's highest-priority due item.
func (s *ReviewService) BuildSingleQuestion(ctx context.Context, userID, itemID string, optionsCount int) (*models.ReviewQuestion, error) {
	now := s.now()

	var item *models.LearningItem
	if itemID == "" {
		due, err := s.selector.SelectBatch(ctx, userID, 1, now)
		if err != nil {
			return nil, err
		}
		if len(due) == 0 {
			return nil, ErrNoDueItems
		}
		item = &due[0]
	} else {
		var err error
		item, err = s.Items.Get(ctx, userID, itemID)
		if errors.Is(err, repository.ErrNotFound) {
			// No personal history yet; the item may still exist as content.
			if _, err := s.Entries.FindByID(ctx, itemID); err != nil {
				return nil, err
			}
			state := s.model.NewItemState(userID, itemID, now)
			item = &state
		} else if err != nil {
			return nil, err
		}
	}

	userCands, err := s.userCandidates(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.composeQuestion(ctx, item, userCands, optionsCount)
}

// SubmitReview grades one answer: applies the memory model, persists the new
// state, and reports the next due time. A version conflict is retried once
// against fresh state before surfacing.
func (s *ReviewService) SubmitReview(ctx context.Context, userID, itemID string, quality float64, givenAnswer string, timeSpentMillis int64) (*models.SubmitReviewResult, error) {
	if userID == "" || itemID == "" {
		return nil, fmt.Errorf("%w: user id and item id are required", ErrInvalidInput)
	}
	now := s.now()

	result, err := s.applyReview(ctx, userID, itemID, quality, now)
	if errors.Is(err, repository.ErrConflict) {
		result, err = s.applyReview(ctx, userID, itemID, quality, now)
	}
	if err != nil {
		return nil, err
	}

	answer := &models.ReviewAnswer{
		UserID:          userID,
		ItemID:          itemID,
		Quality:         quality,
		IsCorrect:       s.model.IsPass(quality),
		GivenAnswer:     givenAnswer,
		TimeSpentMillis: timeSpentMillis,
		AnsweredAt:      now,
	}
	if err := s.Answers.Create(ctx, answer); err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}
	return result, nil
}

// applyReview runs one read-update-write cycle for an item.
func (s *ReviewService) applyReview(ctx context.Context, userID, itemID string, quality float64, now time.Time) (*models.SubmitReviewResult, error) {
	item, err := s.Items.Get(ctx, userID, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		// First-ever exposure. Only items that exist in the curriculum get a
		// default state; anything else is the caller's mistake.
		if _, err := s.Entries.FindByID(ctx, itemID); err != nil {
			return nil, err
		}
		state := s.model.NewItemState(userID, itemID, now)
		item = &state
	} else if err != nil {
		return nil, err
	}

	wasLearned := item.Repetitions > 0

	updated, err := s.model.Update(*item, quality, now)
	if err != nil {
		return nil, err
	}
	updated.ID = item.ID
	updated.Version = item.Version

	if err := s.Items.Upsert(ctx, &updated); err != nil {
		return nil, err
	}

	return &models.SubmitReviewResult{
		NextReviewAt: updated.NextReviewAt,
		NewEase:      updated.Ease,
		IsLapse:      !s.model.IsPass(quality) && wasLearned,
	}, nil
}

// Stats summarizes the user's review state for the stats endpoint.
func (s *ReviewService) Stats(ctx context.Context, userID string) (*models.ReviewStats, error) {
	now := s.now()

	dueCount, err := s.Items.CountDue(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	totalItems, learned, err := s.Items.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	lapses, err := s.Items.SumLapses(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalAnswers, correct, err := s.Answers.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.Answers.CountSince(ctx, userID, startOfDay)
	if err != nil {
		return nil, err
	}

	return &models.ReviewStats{
		UserID:        userID,
		DueCount:      dueCount,
		TotalAnswers:  totalAnswers,
		TotalCorrect:  correct,
		TotalItems:    totalItems,
		TotalLapses:   lapses,
		LearnedItems:  learned,
		ReviewedToday: today,
	}, nil
}

// composeQuestion resolves content and distractors for one item and builds
// the question.
func (s *ReviewService) composeQuestion(ctx context.Context, item *models.LearningItem, userCands []selection.Candidate, optionsCount int) (*models.ReviewQuestion, error) {
	entry, err := s.Entries.FindByID(ctx, item.ItemID)
	if err != nil {
		return nil, err
	}

	// Exclude the primary entry from its own distractors.
	cands := make([]selection.Candidate, 0, len(userCands))
	excludeIDs := []string{entry.ID}
	for _, c := range userCands {
		if c.ID == entry.ID {
			continue
		}
		cands = append(cands, c)
		excludeIDs = append(excludeIDs, c.ID)
	}

	if optionsCount < selection.MinOptionsCount {
		optionsCount = selection.DefaultOptionsCount
	}
	poolEntries, err := s.Pool.SampleDistractors(ctx, excludeIDs, optionsCount-1)
	if err != nil {
		return nil, fmt.Errorf("failed to sample distractor pool: %w", err)
	}
	poolCands := make([]selection.Candidate, 0, len(poolEntries))
	for _, p := range poolEntries {
		poolCands = append(poolCands, selection.PoolCandidate(p.ID, p.Text))
	}

	return s.composer.BuildQuestion(entry, item, cands, poolCands, optionsCount)
}

// userCandidates gathers the learner-owned distractor material: their other
// vocabulary definitions plus texts they have previously answered wrongly.
func (s *ReviewService) userCandidates(ctx context.Context, userID string) ([]selection.Candidate, error) {
	entries, err := s.Entries.FindByOwner(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load user vocabulary: %w", err)
	}
	cands := make([]selection.Candidate, 0, len(entries))
	for _, e := range entries {
		cands = append(cands, selection.UserCandidate(e.ID, e.Definition))
	}

	wrong, err := s.Answers.FindWrongAnswers(ctx, userID, wrongAnswerLookback)
	if err != nil {
		return nil, fmt.Errorf("failed to load wrong answers: %w", err)
	}
	for _, a := range wrong {
		cands = append(cands, selection.UserCandidate("answer:"+a.ID, a.GivenAnswer))
	}
	return cands, nil
}
