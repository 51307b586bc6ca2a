package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"review-service/internal/memory"
	"review-service/internal/models"
	"review-service/internal/repository"
	"review-service/internal/selection"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// --- fakes ---

type fakeItemStore struct {
	items map[string]*models.LearningItem
	// conflictsLeft makes the next N upserts fail with ErrConflict while
	// simulating the concurrent writer bumping the stored version.
	conflictsLeft int
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: map[string]*models.LearningItem{}}
}

func itemKey(userID, itemID string) string { return userID + "|" + itemID }

func (f *fakeItemStore) put(item models.LearningItem) {
	f.items[itemKey(item.UserID, item.ItemID)] = &item
}

func (f *fakeItemStore) FindDue(ctx context.Context, userID string, now time.Time) ([]models.LearningItem, error) {
	var due []models.LearningItem
	for _, item := range f.items {
		if item.UserID == userID && item.IsDue(now) {
			due = append(due, *item)
		}
	}
	return due, nil
}

func (f *fakeItemStore) Get(ctx context.Context, userID, itemID string) (*models.LearningItem, error) {
	item, ok := f.items[itemKey(userID, itemID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItemStore) Upsert(ctx context.Context, item *models.LearningItem) error {
	key := itemKey(item.UserID, item.ItemID)
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		if existing, ok := f.items[key]; ok {
			existing.Version++
		}
		return repository.ErrConflict
	}
	if existing, ok := f.items[key]; ok && existing.Version != item.Version {
		return repository.ErrConflict
	}
	item.Version++
	copied := *item
	f.items[key] = &copied
	return nil
}

func (f *fakeItemStore) CountDue(ctx context.Context, userID string, now time.Time) (int64, error) {
	due, _ := f.FindDue(ctx, userID, now)
	return int64(len(due)), nil
}

func (f *fakeItemStore) CountByUser(ctx context.Context, userID string) (int64, int64, error) {
	var total, learned int64
	for _, item := range f.items {
		if item.UserID != userID {
			continue
		}
		total++
		if item.Repetitions > 0 {
			learned++
		}
	}
	return total, learned, nil
}

func (f *fakeItemStore) SumLapses(ctx context.Context, userID string) (int64, error) {
	var lapses int64
	for _, item := range f.items {
		if item.UserID == userID {
			lapses += int64(item.Lapses)
		}
	}
	return lapses, nil
}

type fakeEntrySource struct {
	entries map[string]models.VocabEntry
}

func newFakeEntrySource(entries ...models.VocabEntry) *fakeEntrySource {
	src := &fakeEntrySource{entries: map[string]models.VocabEntry{}}
	for _, e := range entries {
		src.entries[e.ID] = e
	}
	return src
}

func (f *fakeEntrySource) FindByID(ctx context.Context, id string) (*models.VocabEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &entry, nil
}

func (f *fakeEntrySource) FindByOwner(ctx context.Context, ownerID, excludeID string) ([]models.VocabEntry, error) {
	var out []models.VocabEntry
	for _, e := range f.entries {
		if e.OwnerID == ownerID && e.ID != excludeID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePool struct {
	entries []models.PoolEntry
}

func (f *fakePool) SampleDistractors(ctx context.Context, excludeIDs []string, count int) ([]models.PoolEntry, error) {
	excluded := map[string]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []models.PoolEntry
	for _, e := range f.entries {
		if len(out) >= count {
			break
		}
		if !excluded[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAnswerLog struct {
	answers []models.ReviewAnswer
}

func (f *fakeAnswerLog) Create(ctx context.Context, answer *models.ReviewAnswer) error {
	answer.ID = fmt.Sprintf("answer-%d", len(f.answers)+1)
	f.answers = append(f.answers, *answer)
	return nil
}

func (f *fakeAnswerLog) FindWrongAnswers(ctx context.Context, userID string, limit int) ([]models.ReviewAnswer, error) {
	var out []models.ReviewAnswer
	for i := len(f.answers) - 1; i >= 0 && len(out) < limit; i-- {
		a := f.answers[i]
		if a.UserID == userID && !a.IsCorrect && a.GivenAnswer != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAnswerLog) CountByUser(ctx context.Context, userID string) (int64, int64, error) {
	var total, correct int64
	for _, a := range f.answers {
		if a.UserID != userID {
			continue
		}
		total++
		if a.IsCorrect {
			correct++
		}
	}
	return total, correct, nil
}

func (f *fakeAnswerLog) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	for _, a := range f.answers {
		if a.UserID == userID && !a.AnsweredAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// --- helpers ---

func entry(id, word, definition, owner string) models.VocabEntry {
	return models.VocabEntry{ID: id, Word: word, Definition: definition, OwnerID: owner}
}

func dueState(userID, itemID string, overdueDays int) models.LearningItem {
	reviewed := testNow.AddDate(0, 0, -overdueDays-1)
	return models.LearningItem{
		UserID:         userID,
		ItemID:         itemID,
		Ease:           2.5,
		NextReviewAt:   testNow.AddDate(0, 0, -overdueDays),
		LastReviewedAt: &reviewed,
		Version:        1,
	}
}

func newTestService(items *fakeItemStore, entries *fakeEntrySource, pool *fakePool, answers *fakeAnswerLog) *ReviewService {
	return NewReviewService(items, entries, pool, answers).
		WithClock(fixedClock).
		WithComposer(selection.NewSeededOptionComposer(7))
}

// --- SubmitReview ---

func TestSubmitReview_FirstExposureCreatesDefaults(t *testing.T) {
	items := newFakeItemStore()
	entries := newFakeEntrySource(entry("word-1", "ephemeral", "short lived", "user-1"))
	answers := &fakeAnswerLog{}
	svc := newTestService(items, entries, &fakePool{}, answers)

	result, err := svc.SubmitReview(context.Background(), "user-1", "word-1", 1.0, "short lived", 4200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.NewEase <= 2.5 {
		t.Errorf("expected ease above the 2.5 default, got %.4f", result.NewEase)
	}
	wantDue := testNow.AddDate(0, 0, 1)
	if !result.NextReviewAt.Equal(wantDue) {
		t.Errorf("expected next review %v, got %v", wantDue, result.NextReviewAt)
	}
	if result.IsLapse {
		t.Error("a first-exposure success is not a lapse")
	}

	stored, err := items.Get(context.Background(), "user-1", "word-1")
	if err != nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if stored.Repetitions != 1 || stored.IntervalDays != 1 {
		t.Errorf("persisted state wrong: %+v", stored)
	}
	if len(answers.answers) != 1 {
		t.Fatalf("expected 1 recorded answer, got %d", len(answers.answers))
	}
	if answers.answers[0].TimeSpentMillis != 4200 {
		t.Errorf("time spent not recorded: %+v", answers.answers[0])
	}
}

func TestSubmitReview_UnknownItemIsNotFound(t *testing.T) {
	svc := newTestService(newFakeItemStore(), newFakeEntrySource(), &fakePool{}, &fakeAnswerLog{})

	_, err := svc.SubmitReview(context.Background(), "user-1", "missing", 1.0, "", 0)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitReview_RejectsBadInput(t *testing.T) {
	items := newFakeItemStore()
	entries := newFakeEntrySource(entry("word-1", "w", "d", "user-1"))
	answers := &fakeAnswerLog{}
	svc := newTestService(items, entries, &fakePool{}, answers)

	if _, err := svc.SubmitReview(context.Background(), "", "word-1", 1.0, "", 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty user: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.SubmitReview(context.Background(), "user-1", "", 1.0, "", 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty item: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.SubmitReview(context.Background(), "user-1", "word-1", 1.7, "", 0); !errors.Is(err, memory.ErrInvalidQuality) {
		t.Errorf("bad quality: expected ErrInvalidQuality, got %v", err)
	}

	if len(answers.answers) != 0 {
		t.Errorf("rejected submissions must not be recorded, got %d", len(answers.answers))
	}
	if len(items.items) != 0 {
		t.Errorf("rejected submissions must not persist state")
	}
}

func TestSubmitReview_LapseFlag(t *testing.T) {
	items := newFakeItemStore()
	learned := dueState("user-1", "word-1", 1)
	learned.Repetitions = 3
	items.put(learned)
	items.put(dueState("user-1", "word-2", 1)) // never learned

	entries := newFakeEntrySource(
		entry("word-1", "w1", "d1", "user-1"),
		entry("word-2", "w2", "d2", "user-1"),
	)
	svc := newTestService(items, entries, &fakePool{}, &fakeAnswerLog{})

	// Failing a learned item is a lapse.
	result, err := svc.SubmitReview(context.Background(), "user-1", "word-1", 0.2, "lasting forever", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsLapse {
		t.Error("expected lapse for a failed learned item")
	}

	// Failing an unlearned item is not.
	result, err = svc.SubmitReview(context.Background(), "user-1", "word-2", 0.2, "wrong guess", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsLapse {
		t.Error("failure before any success must not count as lapse")
	}
}

func TestSubmitReview_RetriesOnceOnConflict(t *testing.T) {
	items := newFakeItemStore()
	items.put(dueState("user-1", "word-1", 1))
	items.conflictsLeft = 1

	entries := newFakeEntrySource(entry("word-1", "w", "d", "user-1"))
	svc := newTestService(items, entries, &fakePool{}, &fakeAnswerLog{})

	result, err := svc.SubmitReview(context.Background(), "user-1", "word-1", 1.0, "", 0)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if result == nil || result.NewEase == 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSubmitReview_SurfacesRepeatedConflict(t *testing.T) {
	items := newFakeItemStore()
	items.put(dueState("user-1", "word-1", 1))
	items.conflictsLeft = 2

	entries := newFakeEntrySource(entry("word-1", "w", "d", "user-1"))
	svc := newTestService(items, entries, &fakePool{}, &fakeAnswerLog{})

	_, err := svc.SubmitReview(context.Background(), "user-1", "word-1", 1.0, "", 0)
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict after retry budget, got %v", err)
	}
}

// --- BuildReviewBatch ---

func batchFixtures() (*fakeItemStore, *fakeEntrySource, *fakePool) {
	items := newFakeItemStore()
	entries := newFakeEntrySource(
		entry("word-1", "ephemeral", "short lived", "user-1"),
		entry("word-2", "ubiquitous", "found everywhere", "user-1"),
		entry("word-3", "laconic", "using few words", "user-1"),
	)
	items.put(dueState("user-1", "word-1", 5))
	items.put(dueState("user-1", "word-2", 2))
	items.put(dueState("user-1", "word-3", 1))

	pool := &fakePool{entries: []models.PoolEntry{
		{ID: "pool-1", Text: "a small flat-bottomed boat"},
		{ID: "pool-2", Text: "happening every two years"},
		{ID: "pool-3", Text: "easily broken or damaged"},
	}}
	return items, entries, pool
}

func TestBuildReviewBatch_BuildsOrderedQuestions(t *testing.T) {
	items, entries, pool := batchFixtures()
	svc := newTestService(items, entries, pool, &fakeAnswerLog{})

	questions, err := svc.BuildReviewBatch(context.Background(), "user-1", 10, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	// Most overdue item first.
	if questions[0].ItemID != "word-1" {
		t.Errorf("expected word-1 first, got %s", questions[0].ItemID)
	}
	for _, q := range questions {
		if len(q.Options) != 4 {
			t.Errorf("%s: expected 4 options, got %d", q.ItemID, len(q.Options))
		}
		if !q.Options[q.CorrectIndex].IsCorrect {
			t.Errorf("%s: correct index mismatch", q.ItemID)
		}
		if q.Ease == nil {
			t.Errorf("%s: expected ease on tracked item", q.ItemID)
		}
	}
}

func TestBuildReviewBatch_RespectsSizeBound(t *testing.T) {
	items := newFakeItemStore()
	entries := newFakeEntrySource()
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("word-%02d", i)
		entries.entries[id] = entry(id, id, "definition of "+id, "user-1")
		items.put(dueState("user-1", id, 1))
	}
	svc := newTestService(items, entries, &fakePool{}, &fakeAnswerLog{})

	questions, err := svc.BuildReviewBatch(context.Background(), "user-1", 10, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) > 10 {
		t.Errorf("batch of %d exceeds requested 10", len(questions))
	}
}

func TestBuildReviewBatch_EmptyWhenNothingDue(t *testing.T) {
	svc := newTestService(newFakeItemStore(), newFakeEntrySource(), &fakePool{}, &fakeAnswerLog{})

	questions, err := svc.BuildReviewBatch(context.Background(), "user-1", 10, 4)
	if err != nil {
		t.Fatalf("no due items is not an error, got %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("expected empty batch, got %d", len(questions))
	}
}

func TestBuildReviewBatch_SkipsUnbuildableItems(t *testing.T) {
	items := newFakeItemStore()
	// word-1 has an entry and enough material, orphan has no entry at all.
	entries := newFakeEntrySource(
		entry("word-1", "ephemeral", "short lived", "user-1"),
		entry("word-2", "ubiquitous", "found everywhere", "user-1"),
	)
	items.put(dueState("user-1", "word-1", 2))
	items.put(dueState("user-1", "orphan", 5))

	svc := newTestService(items, entries, &fakePool{}, &fakeAnswerLog{})

	questions, err := svc.BuildReviewBatch(context.Background(), "user-1", 10, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 || questions[0].ItemID != "word-1" {
		t.Errorf("expected only the buildable question, got %+v", questions)
	}
}

func TestBuildReviewBatch_UsesWrongAnswerHistory(t *testing.T) {
	items := newFakeItemStore()
	entries := newFakeEntrySource(entry("word-1", "ephemeral", "short lived", "user-1"))
	items.put(dueState("user-1", "word-1", 2))

	answers := &fakeAnswerLog{answers: []models.ReviewAnswer{
		{ID: "a1", UserID: "user-1", IsCorrect: false, GivenAnswer: "lasting forever", AnsweredAt: testNow.AddDate(0, 0, -1)},
		{ID: "a2", UserID: "user-1", IsCorrect: false, GivenAnswer: "full of energy", AnsweredAt: testNow.AddDate(0, 0, -2)},
	}}

	svc := newTestService(items, entries, &fakePool{}, answers)

	questions, err := svc.BuildReviewBatch(context.Background(), "user-1", 10, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}

	texts := map[string]bool{}
	for _, opt := range questions[0].Options {
		texts[opt.Text] = true
	}
	if !texts["lasting forever"] || !texts["full of energy"] {
		t.Errorf("expected wrong-answer distractors, got options %v", texts)
	}
}

// --- BuildSingleQuestion ---

func TestBuildSingleQuestion_PicksHighestPriority(t *testing.T) {
	items, entries, pool := batchFixtures()
	svc := newTestService(items, entries, pool, &fakeAnswerLog{})

	q, err := svc.BuildSingleQuestion(context.Background(), "user-1", "", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ItemID != "word-1" {
		t.Errorf("expected the most overdue item, got %s", q.ItemID)
	}
}

func TestBuildSingleQuestion_NoDueItems(t *testing.T) {
	svc := newTestService(newFakeItemStore(), newFakeEntrySource(), &fakePool{}, &fakeAnswerLog{})

	_, err := svc.BuildSingleQuestion(context.Background(), "user-1", "", 4)
	if !errors.Is(err, ErrNoDueItems) {
		t.Errorf("expected ErrNoDueItems, got %v", err)
	}
}

func TestBuildSingleQuestion_ExplicitUntrackedItem(t *testing.T) {
	items, entries, pool := batchFixtures()
	entries.entries["word-9"] = entry("word-9", "garrulous", "excessively talkative", "user-1")
	svc := newTestService(items, entries, pool, &fakeAnswerLog{})

	q, err := svc.BuildSingleQuestion(context.Background(), "user-1", "word-9", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ItemID != "word-9" {
		t.Errorf("expected word-9, got %s", q.ItemID)
	}
	if q.Ease == nil || *q.Ease != memory.InitialEase {
		t.Errorf("untracked item should carry the default ease, got %v", q.Ease)
	}
}

// --- Stats ---

func TestStats_Counts(t *testing.T) {
	items, entries, _ := batchFixtures()
	learned := dueState("user-1", "word-4", 0)
	learned.Repetitions = 2
	learned.Lapses = 3
	learned.NextReviewAt = testNow.AddDate(0, 0, 5) // not due
	items.put(learned)
	entries.entries["word-4"] = entry("word-4", "w4", "d4", "user-1")

	answers := &fakeAnswerLog{answers: []models.ReviewAnswer{
		{UserID: "user-1", IsCorrect: true, AnsweredAt: testNow.Add(-time.Hour)},
		{UserID: "user-1", IsCorrect: false, AnsweredAt: testNow.AddDate(0, 0, -3)},
	}}

	svc := newTestService(items, entries, &fakePool{}, answers)

	stats, err := svc.Stats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.DueCount != 3 {
		t.Errorf("expected 3 due, got %d", stats.DueCount)
	}
	if stats.TotalItems != 4 || stats.LearnedItems != 1 {
		t.Errorf("item counts wrong: %+v", stats)
	}
	if stats.TotalLapses != 3 {
		t.Errorf("expected 3 lapses, got %d", stats.TotalLapses)
	}
	if stats.TotalAnswers != 2 || stats.TotalCorrect != 1 {
		t.Errorf("answer counts wrong: %+v", stats)
	}
	if stats.ReviewedToday != 1 {
		t.Errorf("expected 1 answer today, got %d", stats.ReviewedToday)
	}
}
