package selection

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"review-service/internal/models"
)

// ErrInsufficientOptions means fewer than MinOptionsCount distinct options
// could be assembled for a question. Callers decide whether to skip the item
// or serve it with fewer options.
var ErrInsufficientOptions = errors.New("not enough distinct options for question")

// OptionComposer assembles multiple-choice questions: one correct answer plus
// distractors drawn from the learner's own material first, then the curated
// pool.
type OptionComposer struct {
	rand *rand.Rand
}

func NewOptionComposer() *OptionComposer {
	return &OptionComposer{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSeededOptionComposer fixes the shuffle order for reproducible tests.
func NewSeededOptionComposer(seed int64) *OptionComposer {
	return &OptionComposer{rand: rand.New(rand.NewSource(seed))}
}

// BuildQuestion builds one question for the primary entry. userCands are the
// learner's own candidates (other vocabulary, past wrong answers) and are
// preferred; poolCands fill whatever quota remains. Duplicate texts are
// dropped after normalization. state may be nil for pool-sourced items with
// no personal history.
func (c *OptionComposer) BuildQuestion(
	entry *models.VocabEntry,
	state *models.LearningItem,
	userCands []Candidate,
	poolCands []Candidate,
	optionsCount int,
) (*models.ReviewQuestion, error) {
	if optionsCount < MinOptionsCount {
		optionsCount = DefaultOptionsCount
	}

	options := make([]models.ReviewOption, 0, optionsCount)
	seen := map[string]bool{normalizeText(entry.Definition): true}
	options = append(options, models.ReviewOption{
		ID:        entry.ID,
		Text:      entry.Definition,
		Source:    models.OptionSourceUser,
		IsCorrect: true,
	})

	// User-owned candidates first, pool to fill.
	for _, cand := range append(append([]Candidate{}, userCands...), poolCands...) {
		if len(options) >= optionsCount {
			break
		}
		key := normalizeText(cand.Text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		options = append(options, models.ReviewOption{
			ID:     cand.ID,
			Text:   cand.Text,
			Source: cand.Source,
		})
	}

	if len(options) < MinOptionsCount {
		return nil, ErrInsufficientOptions
	}

	c.rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := 0
	for i, opt := range options {
		if opt.IsCorrect {
			correctIndex = i
			break
		}
	}

	question := &models.ReviewQuestion{
		ItemID:       entry.ID,
		Prompt:       entry.Word,
		Options:      options,
		CorrectIndex: correctIndex,
	}
	if state != nil {
		ease := state.Ease
		question.Ease = &ease
	}
	return question, nil
}

// normalizeText lowercases, trims, and collapses inner whitespace so near
// duplicate options dedupe reliably.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
