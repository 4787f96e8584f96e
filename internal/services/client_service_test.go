package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// gormClientRepo adapts the repo free functions to the ClientRepo
// interface, mirroring the shim the router wires in production.
type gormClientRepo struct{}

func (gormClientRepo) CreateClient(ctx context.Context, db *gorm.DB, name, company, email string) (*domain.Client, error) {
	return repo.CreateClient(ctx, db, name, company, email)
}

func (gormClientRepo) GetClient(ctx context.Context, db *gorm.DB, id string) (*domain.Client, error) {
	return repo.GetClient(ctx, db, id)
}

func (gormClientRepo) ListClients(ctx context.Context, db *gorm.DB, includeInactive bool) ([]domain.Client, error) {
	return repo.ListClients(ctx, db, includeInactive)
}

func (gormClientRepo) CountClients(ctx context.Context, db *gorm.DB, includeInactive bool) (int64, error) {
	return repo.CountClients(ctx, db, includeInactive)
}

func (gormClientRepo) ListClientsPage(ctx context.Context, db *gorm.DB, includeInactive bool, offset, limit int) ([]domain.Client, error) {
	return repo.ListClientsPage(ctx, db, includeInactive, offset, limit)
}

func (gormClientRepo) SearchClients(ctx context.Context, db *gorm.DB, query string, includeInactive bool) ([]domain.Client, error) {
	return repo.SearchClients(ctx, db, query, includeInactive)
}

func (gormClientRepo) UpdateClient(ctx context.Context, db *gorm.DB, id string, updates map[string]any) (*domain.Client, error) {
	return repo.UpdateClient(ctx, db, id, updates)
}

func (gormClientRepo) SetClientActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	return repo.SetClientActive(ctx, db, id, active)
}

func (gormClientRepo) HardDeleteClient(ctx context.Context, db *gorm.DB, id string) error {
	return repo.HardDeleteClient(ctx, db, id)
}

func newClientSvc(t *testing.T) *ClientService {
	t.Helper()
	return NewClientService(newSvcDB(t), gormClientRepo{})
}

// ---------- Create() ----------

func TestClientService_Create_HappyPath(t *testing.T) {
	s := newClientSvc(t)
	c, err := s.Create(context.Background(), "  Sarah Chen  ", " Acme Corp ", " sarah@acme.com ", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name != "Sarah Chen" || c.Company != "Acme Corp" || c.Email != "sarah@acme.com" {
		t.Fatalf("fields not trimmed: %+v", c)
	}
	if !c.Active() {
		t.Fatal("new client should be active")
	}
}

func TestClientService_Create_InvalidName(t *testing.T) {
	s := newClientSvc(t)
	if _, err := s.Create(context.Background(), "   ", "", "", false); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("empty name: expected ErrInvalidName, got %v", err)
	}
	long := strings.Repeat("x", 101)
	if _, err := s.Create(context.Background(), long, "", "", false); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("long name: expected ErrInvalidName, got %v", err)
	}
}

func TestClientService_Create_DuplicateByEmail(t *testing.T) {
	s := newClientSvc(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, "Sarah Chen", "Acme Corp", "sarah@acme.com", false); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := s.Create(ctx, "S. Chen", "Different Co", "SARAH@ACME.COM", false)
	var dup *DuplicateConflictError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateConflictError, got %v", err)
	}
	if len(dup.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(dup.Matches))
	}
	if !dup.Matches[0].EmailMatch || dup.Matches[0].TotalScore != 100 {
		t.Fatalf("expected email-match override, got %+v", dup.Matches[0])
	}
}

func TestClientService_Create_DuplicateByName(t *testing.T) {
	s := newClientSvc(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, "John Smith", "Globex", "", false); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Identical name and company scores 100 regardless of weighting.
	_, err := s.Create(ctx, "john smith", "globex", "", false)
	var dup *DuplicateConflictError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateConflictError, got %v", err)
	}
}

func TestClientService_Create_Forced(t *testing.T) {
	s := newClientSvc(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, "John Smith", "Globex", "", false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Create(ctx, "John Smith", "Globex", "", true); err != nil {
		t.Fatalf("forced create should bypass detection, got %v", err)
	}
	all, err := s.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 clients after forced create, got %d", len(all))
	}
}

func TestClientService_Create_IgnoresArchived(t *testing.T) {
	s := newClientSvc(t)
	ctx := context.Background()
	c, err := s.Create(ctx, "John Smith", "Globex", "", false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.Archive(ctx, c.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, err := s.Create(ctx, "John Smith", "Globex", "", false); err != nil {
		t.Fatalf("archived records should not block creation, got %v", err)
	}
}

func TestClientService_CheckDuplicates_NoWrite(t *testing.T) {
	s := newClientSvc(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, "Sarah Chen", "Acme", "sarah@acme.com", false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	matches, err := s.CheckDuplicates(ctx, "Other Person", "Other", "sarah@acme.com")
	if err != nil {
		t.Fatalf("CheckDuplicates: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	all, _ := s.List(ctx, false)
	if len(all) != 1 {
		t.Fatalf("check must not insert, have %d clients", len(all))
	}
}

// ---------- Get / Update / lifecycle ----------

func TestClientService_Get_NotFound(t *testing.T) {
	s := newClientSvc(t)
	if _, err := s.Get(context.Background(), uuid.NewString()); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestClientService_Update(t *testing.T) {
	s := newClientSvc(t)
	ctx := context.Background()
	c, err := s.Create(ctx, "Sarah Chen", "Acme", "sarah@acme.com", false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	newName := "  Sarah Chen-Okafor "
	got, err := s.Update(ctx, c.ID, ClientUpdate{Name: &newName})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Sarah Chen-Okafor" {
		t.Fatalf("name = %q", got.Name)
	}
	if got.Company != "Acme" || got.Email != "sarah@acme.com" {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	bad := ""
	if _, err := s.Update(ctx, c.ID, ClientUpdate{Name: &bad}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	// No fields set: current record comes back unchanged.
	same, err := s.Update(ctx, c.ID, ClientUpdate{})
	if err != nil || same.Name != "Sarah Chen-Okafor" {
		t.Fatalf("no-op update: %v %+v", err, same)
	}

	if _, err := s.Update(ctx, uuid.NewString(), ClientUpdate{Company: &newName}); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestClientService_ArchiveRestore(t *testing.T) {
	s := newClientSvc(t)
	ctx := context.Background()
	c, err := s.Create(ctx, "Sarah Chen", "", "", false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := s.Archive(ctx, c.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	visible, _ := s.List(ctx, false)
	if len(visible) != 0 {
		t.Fatalf("archived client still listed: %d", len(visible))
	}
	all, _ := s.List(ctx, true)
	if len(all) != 1 {
		t.Fatalf("archived client missing from full list: %d", len(all))
	}

	if err := s.Restore(ctx, c.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	visible, _ = s.List(ctx, false)
	if len(visible) != 1 {
		t.Fatal("restored client not visible")
	}

	if err := s.Archive(ctx, uuid.NewString()); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestClientService_HardDelete_NotFound(t *testing.T) {
	s := newClientSvc(t)
	if err := s.HardDelete(context.Background(), uuid.NewString()); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

// ---------- Search / pagination ----------

func TestClientService_Search(t *testing.T) {
	s := newClientSvc(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, "Sarah Chen", "Acme Corp", "", false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Create(ctx, "John Smith", "Globex", "", false); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := s.Search(ctx, "acme", false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Sarah Chen" {
		t.Fatalf("company search: %+v", got)
	}

	// Blank query degenerates to a full listing.
	got, err = s.Search(ctx, "   ", false)
	if err != nil || len(got) != 2 {
		t.Fatalf("blank query: %v len=%d", err, len(got))
	}
}

func TestClientService_ListPage_Clamps(t *testing.T) {
	s := newClientSvc(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := s.Create(ctx, fmt.Sprintf("Client %d", i), "", "", true); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, total, err := s.ListPage(ctx, false, 0, 0)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}

	items, _, err = s.ListPage(ctx, false, 2, 2)
	if err != nil {
		t.Fatalf("ListPage p2: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("page 2 len=%d", len(items))
	}
}
