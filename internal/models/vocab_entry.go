package models

import "time"

// VocabEntry is the learnable content a LearningItem tracks progress against.
type VocabEntry struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	Word       string    `bson:"word" json:"word"`
	Definition string    `bson:"definition" json:"definition"`
	TopicTags  []string  `bson:"topic_tags" json:"topic_tags"`
	OwnerID    string    `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// PoolEntry is one candidate answer from the curated global distractor pool.
type PoolEntry struct {
	ID        string   `bson:"_id,omitempty" json:"id"`
	Text      string   `bson:"text" json:"text"`
	TopicTags []string `bson:"topic_tags" json:"topic_tags"`
}
