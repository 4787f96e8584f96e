// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the FollowUp
// model. Follow-ups are created once per interaction and only ever read
// afterwards; lookup is by interaction id.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// CreateFollowUp stores generated follow-up content for an interaction.
func CreateFollowUp(ctx context.Context, db *gorm.DB, interactionID, emailText, messageText string) (*domain.FollowUp, error) {
	f := &domain.FollowUp{
		ID:            uuid.NewString(),
		InteractionID: interactionID,
		EmailText:     emailText,
		MessageText:   messageText,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

// GetFollowUpByInteraction returns the follow-up stored for the given
// interaction, or ErrNotFound when none exists yet.
func GetFollowUpByInteraction(ctx context.Context, db *gorm.DB, interactionID string) (*domain.FollowUp, error) {
	var f domain.FollowUp
	if err := db.WithContext(ctx).First(&f, "interaction_id = ?", interactionID).Error; err != nil {
		return nil, err
	}
	return &f, nil
}
