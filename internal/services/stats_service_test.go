package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

func TestStatsService_Pipeline(t *testing.T) {
	db := newSvcDB(t)
	s := NewStatsService(db)
	ctx := context.Background()

	c, err := repo.CreateClient(ctx, db, "Sarah Chen", "Acme", "")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	for _, stage := range []domain.DealStage{domain.StageProposal, domain.StageProposal, domain.StageQualification} {
		_, err := repo.CreateInteraction(ctx, db, c.ID, "raw text here", domain.CRMRecord{
			Summary:       "A reasonably long summary",
			DealStage:     stage,
			InterestLevel: domain.InterestWarm,
			NextAction:    "Follow up",
		})
		if err != nil {
			t.Fatalf("seed interaction: %v", err)
		}
	}

	dist, err := s.Pipeline(ctx, false)
	if err != nil {
		t.Fatalf("Pipeline: %v", err)
	}
	if dist[domain.StageProposal] != 2 || dist[domain.StageQualification] != 1 {
		t.Fatalf("distribution = %v", dist)
	}
}

func TestStatsService_Recent_ClampsLimit(t *testing.T) {
	s := NewStatsService(newSvcDB(t))
	items, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("empty db should yield no items, got %d", len(items))
	}
}

func TestStatsService_Client(t *testing.T) {
	db := newSvcDB(t)
	s := NewStatsService(db)
	ctx := context.Background()

	if _, err := s.Client(ctx, uuid.NewString()); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}

	c, err := repo.CreateClient(ctx, db, "Sarah Chen", "", "")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	stats, err := s.Client(ctx, c.ID)
	if err != nil {
		t.Fatalf("Client: %v", err)
	}
	if stats.TotalInteractions != 0 || stats.FirstContact != nil {
		t.Fatalf("fresh client stats = %+v", stats)
	}
}
