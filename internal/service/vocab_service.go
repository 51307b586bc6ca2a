package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"review-service/internal/models"
	"review-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntryStore is the persistence surface for learner vocabulary management.
type EntryStore interface {
	FindByID(ctx context.Context, id string) (*models.VocabEntry, error)
	FindByOwner(ctx context.Context, ownerID string, excludeID string) ([]models.VocabEntry, error)
	Create(ctx context.Context, entry *models.VocabEntry) error
	Update(ctx context.Context, id string, update bson.M) error
	Delete(ctx context.Context, id string) error
}

// PoolStore writes to the curated distractor pool.
type PoolStore interface {
	Insert(ctx context.Context, entry *models.PoolEntry) error
	FindAll(ctx context.Context) ([]models.PoolEntry, error)
}

// VocabService manages learner-owned vocabulary entries and the curated
// distractor pool. Ownership is enforced here, not in the repository.
type VocabService struct {
	Entries EntryStore
	Pool    PoolStore
	now     func() time.Time
}

func NewVocabService(entries EntryStore, pool PoolStore) *VocabService {
	return &VocabService{Entries: entries, Pool: pool, now: time.Now}
}

func (s *VocabService) ListEntries(ctx context.Context, ownerID string) ([]models.VocabEntry, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: empty owner id", ErrInvalidInput)
	}
	return s.Entries.FindByOwner(ctx, ownerID, "")
}

func (s *VocabService) GetEntry(ctx context.Context, ownerID, id string) (*models.VocabEntry, error) {
	entry, err := s.Entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.OwnerID != "" && entry.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return entry, nil
}

func (s *VocabService) CreateEntry(ctx context.Context, ownerID string, entry *models.VocabEntry) error {
	if ownerID == "" {
		return fmt.Errorf("%w: empty owner id", ErrInvalidInput)
	}
	entry.Word = strings.TrimSpace(entry.Word)
	entry.Definition = strings.TrimSpace(entry.Definition)
	if entry.Word == "" || entry.Definition == "" {
		return fmt.Errorf("%w: word and definition are required", ErrInvalidInput)
	}
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	entry.OwnerID = ownerID
	now := s.now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return s.Entries.Create(ctx, entry)
}

// UpdateEntry applies a whitelisted partial update to an owned entry.
func (s *VocabService) UpdateEntry(ctx context.Context, ownerID, id string, update map[string]any) error {
	if _, err := s.GetEntry(ctx, ownerID, id); err != nil {
		return err
	}
	fields := bson.M{}
	for key, value := range update {
		switch key {
		case "word", "definition", "topic_tags":
			fields[key] = value
		}
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: no updatable fields", ErrInvalidInput)
	}
	fields["updated_at"] = s.now()
	return s.Entries.Update(ctx, id, fields)
}

func (s *VocabService) DeleteEntry(ctx context.Context, ownerID, id string) error {
	if _, err := s.GetEntry(ctx, ownerID, id); err != nil {
		return err
	}
	return s.Entries.Delete(ctx, id)
}

func (s *VocabService) ListPool(ctx context.Context) ([]models.PoolEntry, error) {
	return s.Pool.FindAll(ctx)
}

func (s *VocabService) AddPoolEntry(ctx context.Context, entry *models.PoolEntry) error {
	entry.Text = strings.TrimSpace(entry.Text)
	if entry.Text == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	return s.Pool.Insert(ctx, entry)
}
