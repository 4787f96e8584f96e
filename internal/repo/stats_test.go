package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

func TestPipelineStats_CountsByStageAndVisibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, _ := CreateClient(ctx, db, "A", "", "")
	b, _ := CreateClient(ctx, db, "B", "", "")
	CreateInteraction(ctx, db, a.ID, "conversation number one", testRecord(domain.StageProposal))
	CreateInteraction(ctx, db, a.ID, "conversation number two", testRecord(domain.StageProposal))
	CreateInteraction(ctx, db, b.ID, "conversation number three", testRecord(domain.StageClosedWon))

	stats, err := PipelineStats(ctx, db, false)
	if err != nil {
		t.Fatalf("PipelineStats: %v", err)
	}
	if stats[domain.StageProposal] != 2 || stats[domain.StageClosedWon] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
	if _, present := stats[domain.StageNurture]; present {
		t.Fatal("stages without interactions must be absent")
	}

	SetClientActive(ctx, db, b.ID, false)
	stats, _ = PipelineStats(ctx, db, false)
	if _, present := stats[domain.StageClosedWon]; present {
		t.Fatalf("inactive client's interactions still counted: %v", stats)
	}
	stats, _ = PipelineStats(ctx, db, true)
	if stats[domain.StageClosedWon] != 1 {
		t.Fatalf("include_inactive should restore the count: %v", stats)
	}
}

func TestGetClientStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, _ := CreateClient(ctx, db, "Sam", "", "")

	empty, err := GetClientStats(ctx, db, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalInteractions != 0 || empty.FirstContact != nil || empty.LastContact != nil {
		t.Fatalf("empty history should be zeroed: %+v", empty)
	}

	old, _ := CreateInteraction(ctx, db, c.ID, "an older conversation here", testRecord(domain.StageProspecting))
	db.Model(&domain.Interaction{}).Where("id = ?", old.ID).Update("created_at", time.Now().UTC().Add(-48*time.Hour))
	CreateInteraction(ctx, db, c.ID, "a newer conversation here", testRecord(domain.StageProposal))

	stats, err := GetClientStats(ctx, db, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalInteractions != 2 {
		t.Fatalf("TotalInteractions = %d", stats.TotalInteractions)
	}
	if stats.FirstContact == nil || stats.LastContact == nil || !stats.FirstContact.Before(*stats.LastContact) {
		t.Fatalf("contact range wrong: first=%v last=%v", stats.FirstContact, stats.LastContact)
	}
	if len(stats.StagesSeen) != 2 {
		t.Fatalf("StagesSeen = %v", stats.StagesSeen)
	}
}
