// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Client
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Duplicate detection lives in the
// service layer; nothing here blocks a write.
//
// Error semantics:
//   - When a client is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
//
// Soft deletion is modeled with the IsActive flag rather than gorm.DeletedAt
// because legacy rows carry a NULL flag that must keep counting as active;
// every visibility predicate therefore accepts both TRUE and NULL.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// activeClients scopes a query to visible clients, treating a NULL
// is_active (legacy rows) as active.
func activeClients(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ? OR is_active IS NULL", true)
}

// CreateClient inserts a new client row. The ID is a random UUID,
// CreatedAt is set to UTC, and IsActive is explicitly true.
func CreateClient(ctx context.Context, db *gorm.DB, name, company, email string) (*domain.Client, error) {
	active := true
	c := &domain.Client{
		ID:        uuid.NewString(),
		Name:      name,
		Company:   company,
		Email:     email,
		CreatedAt: time.Now().UTC(),
		IsActive:  &active,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetClient fetches a client by ID regardless of its active flag: direct
// lookups by a known ID are never gated by soft deletion. Returns
// ErrNotFound when the row does not exist.
func GetClient(ctx context.Context, db *gorm.DB, id string) (*domain.Client, error) {
	var c domain.Client
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClients returns clients ordered by creation time descending (newest
// first). When includeInactive is false, soft-deleted clients are omitted.
func ListClients(ctx context.Context, db *gorm.DB, includeInactive bool) ([]domain.Client, error) {
	q := db.WithContext(ctx)
	if !includeInactive {
		q = activeClients(q)
	}
	var out []domain.Client
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// CountClients returns the total number of clients visible under the given
// inactive policy, for pagination metadata.
func CountClients(ctx context.Context, db *gorm.DB, includeInactive bool) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Client{})
	if !includeInactive {
		q = activeClients(q)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListClientsPage returns a paginated slice of clients, newest first.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListClientsPage(ctx context.Context, db *gorm.DB, includeInactive bool, offset, limit int) ([]domain.Client, error) {
	q := db.WithContext(ctx)
	if !includeInactive {
		q = activeClients(q)
	}
	var out []domain.Client
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

// SearchClients returns clients whose name or company contains the query
// substring, ordered by name. Matching is the database's default
// case-insensitive LIKE for ASCII.
func SearchClients(ctx context.Context, db *gorm.DB, query string, includeInactive bool) ([]domain.Client, error) {
	pattern := "%" + query + "%"
	q := db.WithContext(ctx).Where("name LIKE ? OR company LIKE ?", pattern, pattern)
	if !includeInactive {
		q = activeClients(q)
	}
	var out []domain.Client
	err := q.Order("name").Find(&out).Error
	return out, err
}

// UpdateClient applies the given field updates to a client. Callers are
// responsible for restricting updates to mutable fields (name, company,
// email). Returns the updated row, or ErrNotFound if it does not exist.
func UpdateClient(ctx context.Context, db *gorm.DB, id string, updates map[string]any) (*domain.Client, error) {
	if len(updates) == 0 {
		return GetClient(ctx, db, id)
	}
	res := db.WithContext(ctx).Model(&domain.Client{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetClient(ctx, db, id)
}

// SetClientActive flips the soft-delete flag: false soft-deletes the
// client, true restores it. Returns ErrNotFound when the row is missing.
func SetClientActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	res := db.WithContext(ctx).Model(&domain.Client{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HardDeleteClient permanently removes the client row. Interactions and
// follow-ups go with it through ON DELETE CASCADE; the explicit deletes
// keep the cascade working even on connections without foreign_keys=ON.
func HardDeleteClient(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Client{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("interaction_id IN (?)",
			tx.Model(&domain.Interaction{}).Select("id").Where("client_id = ?", id),
		).Delete(&domain.FollowUp{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", id).Delete(&domain.Interaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Client{}).Error
	})
}
