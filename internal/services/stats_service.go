// Package services – StatsService
//
// Read-only reporting over the interaction history: pipeline distribution,
// recent activity across clients, and per-client summaries.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// StatsService exposes aggregate views over clients and interactions.
type StatsService struct {
	DB *gorm.DB
}

// NewStatsService constructs a StatsService.
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// Pipeline returns the interaction count per deal stage, based on each
// visible client's interactions.
func (s *StatsService) Pipeline(ctx context.Context, includeInactive bool) (map[domain.DealStage]int64, error) {
	return repo.PipelineStats(ctx, s.DB, includeInactive)
}

// Recent returns the latest interactions across all active clients,
// newest first. Limit is clamped to 1..100 with a default of 10.
func (s *StatsService) Recent(ctx context.Context, limit int) ([]repo.InteractionWithClient, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return repo.RecentInteractions(ctx, s.DB, limit)
}

// Client summarizes one client's interaction history.
func (s *StatsService) Client(ctx context.Context, clientID string) (*repo.ClientStats, error) {
	if _, err := repo.GetClient(ctx, s.DB, clientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return repo.GetClientStats(ctx, s.DB, clientID)
}
