// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Interaction model. Interactions are append-only: there is no update
// path, and corrections are written as new rows.
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// CreateInteraction inserts a new interaction for clientID from the raw
// conversation text and its validated extraction record. Referential
// integrity is the store's job: the owning client must exist.
func CreateInteraction(ctx context.Context, db *gorm.DB, clientID, rawText string, rec domain.CRMRecord) (*domain.Interaction, error) {
	i := &domain.Interaction{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		RawText:       rawText,
		Summary:       rec.Summary,
		DealStage:     rec.DealStage,
		Objections:    rec.Objections,
		InterestLevel: rec.InterestLevel,
		NextAction:    rec.NextAction,
		FollowupDate:  rec.FollowupDate,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(i).Error; err != nil {
		return nil, err
	}
	return i, nil
}

// GetInteraction fetches a single interaction by ID, or ErrNotFound.
func GetInteraction(ctx context.Context, db *gorm.DB, id string) (*domain.Interaction, error) {
	var i domain.Interaction
	if err := db.WithContext(ctx).First(&i, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

// ListInteractions returns every interaction for a client, newest first.
func ListInteractions(ctx context.Context, db *gorm.DB, clientID string) ([]domain.Interaction, error) {
	var out []domain.Interaction
	err := db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// InteractionWithClient pairs an interaction with identifying fields of
// its owning client for activity feeds and due-follow-up lists.
type InteractionWithClient struct {
	Interaction domain.Interaction `json:"interaction"`
	ClientName  string             `json:"client_name"`
	Company     string             `json:"company,omitempty"`
	Email       string             `json:"email,omitempty"`
}

// RecentInteractions returns the most recent interactions across all
// active clients, newest first, with the owning client's identity joined
// in.
func RecentInteractions(ctx context.Context, db *gorm.DB, limit int) ([]InteractionWithClient, error) {
	if limit <= 0 {
		limit = 10
	}
	var items []domain.Interaction
	err := db.WithContext(ctx).
		Joins("JOIN clients ON clients.id = interactions.client_id").
		Where("clients.is_active = ? OR clients.is_active IS NULL", true).
		Order("interactions.created_at desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return attachClients(ctx, db, items)
}

// InteractionsNeedingFollowUp lists interactions of active clients whose
// followup_date falls within the next `days` days (today inclusive) and
// that have no stored follow-up yet, ordered by due date.
func InteractionsNeedingFollowUp(ctx context.Context, db *gorm.DB, days int) ([]InteractionWithClient, error) {
	if days < 0 {
		days = 0
	}
	var items []domain.Interaction
	err := db.WithContext(ctx).
		Joins("JOIN clients ON clients.id = interactions.client_id").
		Where("clients.is_active = ? OR clients.is_active IS NULL", true).
		Where("interactions.followup_date >= date('now')").
		Where(fmt.Sprintf("interactions.followup_date <= date('now', '+%d days')", days)).
		Where("NOT EXISTS (SELECT 1 FROM followups f WHERE f.interaction_id = interactions.id)").
		Order("interactions.followup_date").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return attachClients(ctx, db, items)
}

// attachClients batch-loads the owning clients for a set of interactions
// and pairs them up, preserving the input order.
func attachClients(ctx context.Context, db *gorm.DB, items []domain.Interaction) ([]InteractionWithClient, error) {
	if len(items) == 0 {
		return []InteractionWithClient{}, nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ClientID)
	}
	var clients []domain.Client
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&clients).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	out := make([]InteractionWithClient, len(items))
	for i, it := range items {
		c := byID[it.ClientID]
		out[i] = InteractionWithClient{
			Interaction: it,
			ClientName:  c.Name,
			Company:     c.Company,
			Email:       c.Email,
		}
	}
	return out, nil
}
