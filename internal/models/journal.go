package models

import "time"

// JournalEntry is one reflection record. Entries are written and deleted by
// the journaling feature; this service only reads them.
// CreatedAt is server-assigned and immutable once set. A nil CreatedAt means
// the write has not been confirmed by the server yet.
type JournalEntry struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	UserID    string     `bson:"user_id,omitempty" json:"user_id,omitempty"`
	CreatedAt *time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	Mood      string     `bson:"mood,omitempty" json:"mood,omitempty"`
	Content   string     `bson:"content" json:"content"`
}

// JournalStats is derived from a full journal snapshot. It is recomputed from
// scratch on every update and never persisted.
type JournalStats struct {
	Count       int      `json:"count"`
	StreakDays  int      `json:"streak_days"`
	CommonMoods []string `json:"common_moods"`
}
