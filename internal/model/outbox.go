package model

import (
	"encoding/json"
	"time"
)

type OutboxRecord struct {
	ID        int64           `db:"id" json:"id"`
	EventID   string          `db:"event_id" json:"event_id"`
	Topic     string          `db:"topic" json:"topic"`
	Key       string          `db:"key" json:"key"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	SentAt    *time.Time      `db:"sent_at" json:"sent_at"`
}
