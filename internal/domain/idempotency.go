package domain

import "time"

// Idempotency records the outcome of a previously processed conversation
// request, keyed by (user_id, client_id, key). Extraction is the most
// expensive call in the system, so clients retrying a timed-out POST can
// replay the original result instead of paying for a second model call.
type Idempotency struct {
	ID            string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_client_key,priority:1"`
	ClientID      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_client_key,priority:2"`
	Key           string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_client_key,priority:3"`
	InteractionID string    `gorm:"type:TEXT NOT NULL"`
	Status        int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt     time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt     time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
