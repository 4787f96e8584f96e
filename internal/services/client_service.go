// Package services – ClientService
//
// This file implements the ClientService, which manages the lifecycle of
// client records. It validates and normalizes names, runs duplicate
// detection before inserts, and coordinates repository operations for
// creating, listing (with pagination), searching, updating, and
// soft/hard-deleting clients.
//
// Service-level errors (e.g., ErrClientNotFound) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
// Duplicate hits are reported as a *DuplicateConflictError carrying the
// ranked matches rather than silently blocking the write.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/match"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// ClientRepo defines the repository contract required by ClientService.
// Implementations are responsible for persistence of client aggregates.
type ClientRepo interface {
	// CreateClient inserts a new client row.
	CreateClient(ctx context.Context, db *gorm.DB, name, company, email string) (*domain.Client, error)

	// GetClient fetches a client by ID regardless of its active flag.
	GetClient(ctx context.Context, db *gorm.DB, id string) (*domain.Client, error)

	// ListClients returns all clients, optionally including inactive ones.
	ListClients(ctx context.Context, db *gorm.DB, includeInactive bool) ([]domain.Client, error)

	// CountClients returns the total number of clients for pagination.
	CountClients(ctx context.Context, db *gorm.DB, includeInactive bool) (int64, error)

	// ListClientsPage returns a page of clients, newest first.
	ListClientsPage(ctx context.Context, db *gorm.DB, includeInactive bool, offset, limit int) ([]domain.Client, error)

	// SearchClients matches the query against name and company.
	SearchClients(ctx context.Context, db *gorm.DB, query string, includeInactive bool) ([]domain.Client, error)

	// UpdateClient applies the given column updates to a client.
	UpdateClient(ctx context.Context, db *gorm.DB, id string, updates map[string]any) (*domain.Client, error)

	// SetClientActive flips the soft-delete flag.
	SetClientActive(ctx context.Context, db *gorm.DB, id string, active bool) error

	// HardDeleteClient permanently removes a client and its history.
	HardDeleteClient(ctx context.Context, db *gorm.DB, id string) error
}

// ClientService provides client-level operations such as creating,
// searching, and archiving client records. Creation is guarded by the
// duplicate detector unless the caller explicitly forces the insert.
type ClientService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the client repository used by this service.
	Repo ClientRepo
	// Detector scores candidates against the existing active set.
	Detector *match.Detector

	// NameMaxLen caps stored names by rune length.
	NameMaxLen int
}

// NewClientService constructs a ClientService with the default duplicate
// threshold and name length cap.
func NewClientService(db *gorm.DB, r ClientRepo) *ClientService {
	return &ClientService{
		DB:         db,
		Repo:       r,
		Detector:   match.NewDetector(0),
		NameMaxLen: 100,
	}
}

// ClientUpdate carries the mutable client fields for Update. Nil fields
// are left unchanged.
type ClientUpdate struct {
	Name    *string
	Company *string
	Email   *string
}

// Create inserts a new client after scoring it against the existing active
// set. When matches are found and force is false, the insert is rejected
// with a *DuplicateConflictError listing them; force true skips the check
// entirely.
//
// The check and the insert are not atomic: two concurrent creates of the
// same person can both pass the scan. Duplicates are advisory, not a
// uniqueness constraint.
func (s *ClientService) Create(ctx context.Context, name, company, email string, force bool) (*domain.Client, error) {
	name = strings.TrimSpace(name)
	company = strings.TrimSpace(company)
	email = strings.TrimSpace(email)
	if err := s.validateName(name); err != nil {
		return nil, err
	}

	if !force {
		existing, err := s.Repo.ListClients(ctx, s.DB, false)
		if err != nil {
			return nil, err
		}
		if matches := s.Detector.FindDuplicates(name, email, company, existing); len(matches) > 0 {
			return nil, &DuplicateConflictError{Matches: matches}
		}
	}
	return s.Repo.CreateClient(ctx, s.DB, name, company, email)
}

// CheckDuplicates scores a candidate record without writing anything.
func (s *ClientService) CheckDuplicates(ctx context.Context, name, company, email string) ([]match.Match, error) {
	existing, err := s.Repo.ListClients(ctx, s.DB, false)
	if err != nil {
		return nil, err
	}
	return s.Detector.FindDuplicates(strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(company), existing), nil
}

// Get returns one client by ID, including archived ones.
func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	c, err := s.Repo.GetClient(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns all clients, optionally including archived ones.
func (s *ClientService) List(ctx context.Context, includeInactive bool) ([]domain.Client, error) {
	return s.Repo.ListClients(ctx, s.DB, includeInactive)
}

// ListPage returns one page of clients plus the total count. Page numbers
// start at 1; out-of-range inputs are clamped.
func (s *ClientService) ListPage(ctx context.Context, includeInactive bool, page, pageSize int) ([]domain.Client, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	total, err := s.Repo.CountClients(ctx, s.DB, includeInactive)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.Repo.ListClientsPage(ctx, s.DB, includeInactive, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Search matches the query against client names and companies. An empty
// query degenerates to List.
func (s *ClientService) Search(ctx context.Context, query string, includeInactive bool) ([]domain.Client, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Repo.ListClients(ctx, s.DB, includeInactive)
	}
	return s.Repo.SearchClients(ctx, s.DB, query, includeInactive)
}

// Update applies the provided field changes. Only name, company, and email
// are mutable; anything else on the row is owned by the system. A no-op
// update returns the current record.
func (s *ClientService) Update(ctx context.Context, id string, upd ClientUpdate) (*domain.Client, error) {
	updates := map[string]any{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := s.validateName(name); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if upd.Company != nil {
		updates["company"] = strings.TrimSpace(*upd.Company)
	}
	if upd.Email != nil {
		updates["email"] = strings.TrimSpace(*upd.Email)
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}
	c, err := s.Repo.UpdateClient(ctx, s.DB, id, updates)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return c, nil
}

// Archive soft-deletes a client. History is preserved and the record can
// be restored later.
func (s *ClientService) Archive(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

// Restore reactivates a previously archived client.
func (s *ClientService) Restore(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

// HardDelete permanently removes a client together with its interactions
// and follow-ups. There is no undo.
func (s *ClientService) HardDelete(ctx context.Context, id string) error {
	err := s.Repo.HardDeleteClient(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrClientNotFound
	}
	return err
}

func (s *ClientService) setActive(ctx context.Context, id string, active bool) error {
	err := s.Repo.SetClientActive(ctx, s.DB, id, active)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrClientNotFound
	}
	return err
}

func (s *ClientService) validateName(name string) error {
	max := s.NameMaxLen
	if max <= 0 {
		max = 100
	}
	if name == "" || utf8.RuneCountInString(name) > max {
		return ErrInvalidName
	}
	return nil
}
