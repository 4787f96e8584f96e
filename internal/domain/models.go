// Package domain defines the persistence models for clients, interactions,
// and follow-ups. These types are mapped with GORM and form the core data
// layer of the CRM application.
package domain

import "time"

// Client represents a sales prospect or customer. Clients own interactions
// and are the unit of duplicate detection at creation time.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: contact name, 1–100 chars, required.
//   - Company / Email: optional identification fields; email participates
//     in exact-match duplicate detection.
//   - CreatedAt: timestamp managed by GORM.
//   - IsActive: soft-delete flag. A NULL value (legacy rows) is treated as
//     active everywhere; query predicates must accept both.
type Client struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(100);not null;index:idx_clients_name"`
	Company   string    `json:"company,omitempty" gorm:"type:varchar(100)"`
	Email     string    `json:"email,omitempty"   gorm:"type:varchar(100);index:idx_clients_email"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  *bool     `json:"is_active"  gorm:"index"`
}

// TableName returns the database table name for Client.
func (Client) TableName() string { return "clients" }

// Active reports whether the client is visible in default listings.
// A nil IsActive (legacy row) counts as active.
func (c Client) Active() bool {
	return c.IsActive == nil || *c.IsActive
}

// Interaction is an append-only record of a single sales conversation,
// together with the structured data extracted from it. Interactions are
// never edited; corrections are modeled as new interactions.
//
// RawText holds the original conversation, the remaining fields hold the
// validated extraction output (see extract.Validate).
type Interaction struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	ClientID      string    `json:"client_id"      gorm:"type:char(36);not null;index:idx_client_interactions,priority:1"`
	RawText       string    `json:"raw_text"       gorm:"type:text;not null"`
	Summary       string    `json:"summary"        gorm:"type:text;not null"`
	DealStage     DealStage `json:"deal_stage"     gorm:"type:varchar(32);not null;index"`
	Objections    string    `json:"objections,omitempty" gorm:"type:text"`
	InterestLevel InterestLevel `json:"interest_level" gorm:"type:varchar(16);not null"`
	NextAction    string    `json:"next_action"    gorm:"type:text;not null"`
	FollowupDate  string    `json:"followup_date,omitempty" gorm:"type:varchar(10)"`
	CreatedAt     time.Time `json:"created_at"     gorm:"index:idx_client_interactions,priority:2"`

	// Client is the owning record. Interactions are cascade-deleted when
	// their client is hard-deleted.
	Client Client `json:"-" gorm:"foreignKey:ClientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Interaction.
func (Interaction) TableName() string { return "interactions" }

// FollowUp stores generated outreach content for one interaction: a full
// email body and a short chat-style message. Follow-ups are created once
// and only ever read afterwards; lookup is by interaction id.
type FollowUp struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	InteractionID string    `json:"interaction_id" gorm:"type:char(36);not null;index"`
	EmailText     string    `json:"email_text"     gorm:"type:text;not null"`
	MessageText   string    `json:"message_text"   gorm:"type:text;not null"`
	CreatedAt     time.Time `json:"created_at"`

	// Interaction is the source record. Follow-ups are cascade-deleted
	// along with it.
	Interaction Interaction `json:"-" gorm:"foreignKey:InteractionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for FollowUp.
func (FollowUp) TableName() string { return "followups" }
