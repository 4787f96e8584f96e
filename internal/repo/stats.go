// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries over the
// pipeline: deal-stage counts for the dashboard and per-client interaction
// statistics.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// PipelineStats returns the number of interactions per deal stage.
// When includeInactive is false, interactions of soft-deleted clients are
// excluded. Stages with no interactions are absent from the map.
func PipelineStats(ctx context.Context, db *gorm.DB, includeInactive bool) (map[domain.DealStage]int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.Interaction{}).
		Select("interactions.deal_stage AS deal_stage, COUNT(*) AS n").
		Joins("JOIN clients ON clients.id = interactions.client_id")
	if !includeInactive {
		q = q.Where("clients.is_active = ? OR clients.is_active IS NULL", true)
	}

	var rows []struct {
		DealStage string
		N         int64
	}
	if err := q.Group("interactions.deal_stage").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[domain.DealStage]int64, len(rows))
	for _, r := range rows {
		out[domain.DealStage(r.DealStage)] = r.N
	}
	return out, nil
}

// ClientStats summarizes a single client's interaction history.
type ClientStats struct {
	TotalInteractions int64      `json:"total_interactions"`
	FirstContact      *time.Time `json:"first_contact,omitempty"`
	LastContact       *time.Time `json:"last_contact,omitempty"`
	StagesSeen        []string   `json:"stages_seen"`
}

// GetClientStats computes interaction totals, first/last contact times,
// and the distinct deal stages seen for one client. A client with no
// interactions yields zero totals and nil contact timestamps.
func GetClientStats(ctx context.Context, db *gorm.DB, clientID string) (*ClientStats, error) {
	// Chained clauses accumulate on a *gorm.DB across finalizers, so each
	// query below starts from a fresh builder.
	base := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Interaction{}).Where("client_id = ?", clientID)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, err
	}
	stats := &ClientStats{TotalInteractions: total, StagesSeen: []string{}}
	if total == 0 {
		return stats, nil
	}

	// Ordered single-row scans avoid MAX()/MIN() coming back as TEXT in
	// SQLite.
	var row struct{ CreatedAt time.Time }
	if err := base().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return nil, err
	}
	last := row.CreatedAt
	stats.LastContact = &last

	if err := base().Select("created_at").Order("created_at ASC").Limit(1).Scan(&row).Error; err != nil {
		return nil, err
	}
	first := row.CreatedAt
	stats.FirstContact = &first

	var stages []string
	if err := base().Distinct("deal_stage").Order("deal_stage").Pluck("deal_stage", &stages).Error; err != nil {
		return nil, err
	}
	for _, s := range stages {
		if strings.TrimSpace(s) != "" {
			stats.StagesSeen = append(stats.StagesSeen, s)
		}
	}
	return stats, nil
}
