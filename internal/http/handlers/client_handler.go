// Client HTTP handlers.
//
// This file exposes REST endpoints for client resources:
//   - POST   /clients              (create, duplicate-guarded)
//   - GET    /clients              (list, paginated)
//   - GET    /clients/search       (search by name or company)
//   - GET    /clients/{id}         (fetch one)
//   - PATCH  /clients/{id}         (update contact fields)
//   - DELETE /clients/{id}         (archive; ?hard=true purges)
//   - POST   /clients/{id}/restore (reactivate)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/repo"
	"github.com/tbourn/go-crm-backend/internal/services"
	"github.com/tbourn/go-crm-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ClientService defines client lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ClientService interface {
	// Create inserts a client; force bypasses duplicate detection.
	Create(ctx context.Context, name, company, email string, force bool) (*domain.Client, error)
	// Get returns one client by id, archived ones included.
	Get(ctx context.Context, id string) (*domain.Client, error)
	// ListPage returns a page of clients and the total count.
	ListPage(ctx context.Context, includeInactive bool, page, pageSize int) ([]domain.Client, int64, error)
	// Search matches the query against names and companies.
	Search(ctx context.Context, query string, includeInactive bool) ([]domain.Client, error)
	// Update applies partial changes to contact fields.
	Update(ctx context.Context, id string, upd services.ClientUpdate) (*domain.Client, error)
	// Archive soft-deletes; Restore reverses it; HardDelete purges.
	Archive(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

// ExtractionService defines conversation processing operations.
type ExtractionService interface {
	// Process extracts structured data from a conversation and stores it.
	Process(ctx context.Context, clientID, conversation string) (*domain.Interaction, error)
	// History lists a client's interactions, newest first.
	History(ctx context.Context, clientID string) ([]domain.Interaction, error)
	// GetInteraction returns one interaction by id.
	GetInteraction(ctx context.Context, id string) (*domain.Interaction, error)
}

// FollowUpService defines follow-up drafting and retrieval operations.
type FollowUpService interface {
	// Generate drafts and stores follow-up content for an interaction.
	Generate(ctx context.Context, interactionID string) (*domain.FollowUp, error)
	// Get returns the stored follow-up for an interaction.
	Get(ctx context.Context, interactionID string) (*domain.FollowUp, error)
	// Due lists interactions with a follow-up date inside the window.
	Due(ctx context.Context, days int) ([]repo.InteractionWithClient, error)
}

// StatsService defines reporting operations.
type StatsService interface {
	// Pipeline returns the interaction count per deal stage.
	Pipeline(ctx context.Context, includeInactive bool) (map[domain.DealStage]int64, error)
	// Recent returns the latest interactions across active clients.
	Recent(ctx context.Context, limit int) ([]repo.InteractionWithClient, error)
	// Client summarizes one client's history.
	Client(ctx context.Context, clientID string) (*repo.ClientStats, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for clients, interactions, follow-ups,
// and stats. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	clientSvc  ClientService
	extractSvc ExtractionService
	fuSvc      FollowUpService
	statsSvc   StatsService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(clientSvc ClientService, extractSvc ExtractionService, fuSvc FollowUpService, statsSvc StatsService) *Handlers {
	return &Handlers{clientSvc: clientSvc, extractSvc: extractSvc, fuSvc: fuSvc, statsSvc: statsSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateClientRequest is the JSON payload for creating a client.
type CreateClientRequest struct {
	// Name is the client's display name (1-100 chars).
	Name string `json:"name" binding:"required" example:"Sarah Chen"`
	// Company optionally names the client's organization.
	Company string `json:"company" example:"Acme Corp"`
	// Email optionally records a contact address.
	Email string `json:"email" example:"sarah@acme.com"`
	// Force skips duplicate detection when true.
	Force bool `json:"force" example:"false"`
}

// UpdateClientRequest is the JSON payload for partially updating a client.
// Absent fields stay untouched.
type UpdateClientRequest struct {
	Name    *string `json:"name,omitempty" example:"Sarah Chen-Okafor"`
	Company *string `json:"company,omitempty" example:"Initech"`
	Email   *string `json:"email,omitempty" example:"sarah@initech.com"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListClientsResponse wraps a page of clients and pagination information.
type ListClientsResponse struct {
	Clients    []domain.Client `json:"clients"`
	Pagination Pagination      `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// includeInactive reports whether the request opted in to archived rows.
func includeInactive(c *gin.Context) bool {
	v := strings.ToLower(strings.TrimSpace(c.Query("include_inactive")))
	return v == "1" || v == "true" || v == "yes"
}

// requireUUID validates a path id and writes a 400 when it is malformed.
func requireUUID(c *gin.Context, id, what string) bool {
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, what+" id must be a UUID")
		return false
	}
	return true
}

//
// Handlers
//

// CreateClient godoc
// @ID          createClient
// @Summary     Create a new client
// @Description Creates a client record. Candidates scoring at or above the duplicate
// @Description threshold against existing active clients are rejected with 409 and the
// @Description ranked matches; pass force=true to create anyway.
// @Tags        Clients
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateClientRequest  true  "Create client payload"
//
// @Success     201  {object}  domain.Client
// @Failure     400  {object}  handlers.ErrorResponse             "Bad request"
// @Failure     409  {object}  handlers.DuplicateConflictResponse "Potential duplicates"
// @Failure     500  {object}  handlers.ErrorResponse             "Internal error"
// @Router      /clients [post]
func (h *Handlers) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	client, err := h.clientSvc.Create(c.Request.Context(), req.Name, req.Company, req.Email, req.Force)
	if err != nil {
		var dup *services.DuplicateConflictError
		switch {
		case errors.As(err, &dup):
			failDuplicate(c, dup.Matches)
		case errors.Is(err, services.ErrInvalidName):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, client)
}

// ListClients godoc
// @ID          listClients
// @Summary     List clients (paginated)
// @Description Returns a page of clients, newest first. Archived clients are hidden
// @Description unless include_inactive=true.
// @Tags        Clients
// @Produce     json
//
// @Param       page              query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size         query  int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Param       include_inactive  query  bool    false "Include archived clients"
//
// @Success     200  {object} handlers.ListClientsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /clients [get]
func (h *Handlers) ListClients(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.clientSvc.ListPage(c.Request.Context(), includeInactive(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListClientsResponse{
		Clients: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// SearchClients godoc
// @ID          searchClients
// @Summary     Search clients
// @Description Case-insensitive substring search over client names and companies.
// @Tags        Clients
// @Produce     json
//
// @Param       q                 query  string  true  "Search term"
// @Param       include_inactive  query  bool    false "Include archived clients"
//
// @Success     200  {array}  domain.Client
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /clients/search [get]
func (h *Handlers) SearchClients(c *gin.Context) {
	items, err := h.clientSvc.Search(c.Request.Context(), c.Query("q"), includeInactive(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Client{}
	}
	ok(c, http.StatusOK, items)
}

// GetClient godoc
// @ID          getClient
// @Summary     Fetch one client
// @Description Returns a client by id, archived ones included.
// @Tags        Clients
// @Produce     json
//
// @Param       id  path  string  true  "Client ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Client
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Client not found"
// @Router      /clients/{id} [get]
func (h *Handlers) GetClient(c *gin.Context) {
	id := c.Param("id")
	if !requireUUID(c, id, "client") {
		return
	}
	client, err := h.clientSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "client not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, client)
}

// UpdateClient godoc
// @ID          updateClient
// @Summary     Update client contact fields
// @Description Partially updates name, company, or email. Absent fields stay untouched.
// @Tags        Clients
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                        true  "Client ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateClientRequest  true  "Fields to change"
//
// @Success     200  {object} domain.Client
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Client not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /clients/{id} [patch]
func (h *Handlers) UpdateClient(c *gin.Context) {
	id := c.Param("id")
	if !requireUUID(c, id, "client") {
		return
	}

	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	client, err := h.clientSvc.Update(c.Request.Context(), id, services.ClientUpdate{
		Name:    req.Name,
		Company: req.Company,
		Email:   req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClientNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "client not found")
		case errors.Is(err, services.ErrInvalidName):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, client)
}

// DeleteClient godoc
// @ID          deleteClient
// @Summary     Archive or purge a client
// @Description Archives the client (soft delete) by default; hard=true permanently
// @Description removes the client with all interactions and follow-ups.
// @Tags        Clients
// @Produce     json
//
// @Param       id    path   string  true  "Client ID (UUID)"  format(uuid)
// @Param       hard  query  bool    false "Purge instead of archive"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Client not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /clients/{id} [delete]
func (h *Handlers) DeleteClient(c *gin.Context) {
	id := c.Param("id")
	if !requireUUID(c, id, "client") {
		return
	}

	var err error
	if strings.EqualFold(c.Query("hard"), "true") {
		err = h.clientSvc.HardDelete(c.Request.Context(), id)
	} else {
		err = h.clientSvc.Archive(c.Request.Context(), id)
	}
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "client not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// RestoreClient godoc
// @ID          restoreClient
// @Summary     Restore an archived client
// @Description Reactivates a soft-deleted client with its history intact.
// @Tags        Clients
// @Produce     json
//
// @Param       id  path  string  true  "Client ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Client not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /clients/{id}/restore [post]
func (h *Handlers) RestoreClient(c *gin.Context) {
	id := c.Param("id")
	if !requireUUID(c, id, "client") {
		return
	}
	if err := h.clientSvc.Restore(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "client not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
