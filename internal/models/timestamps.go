package models

import "time"

// Timestamps is embedded by every persisted entity.
type Timestamps struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func NewTimestamps(now time.Time) Timestamps {
	return Timestamps{CreatedAt: now, UpdatedAt: now}
}

// Touch moves UpdatedAt forward to now.
func (t *Timestamps) Touch(now time.Time) {
	t.UpdatedAt = now
}
