// Interaction HTTP handlers.
//
// This file exposes REST endpoints for conversation processing:
//   - POST /clients/{id}/interactions (process a conversation, idempotent)
//   - GET  /clients/{id}/interactions (full history, newest first)
//   - GET  /interactions/recent       (activity feed across clients)
//
// Processing a conversation is the expensive operation in the system (two
// model calls in the worst case), so it supports the Idempotency-Key header:
// replays of a stored key return the original interaction without touching
// the model again.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/llm"
	"github.com/tbourn/go-crm-backend/internal/repo"
	"github.com/tbourn/go-crm-backend/internal/services"
	"github.com/tbourn/go-crm-backend/internal/utils"
)

// PostInteractionRequest is the JSON payload for processing a conversation.
type PostInteractionRequest struct {
	// Conversation is the raw sales conversation text (min 10 chars).
	Conversation string `json:"conversation" binding:"required" example:"Call with Sarah: wants enterprise pricing before the board meeting."`
}

// ExtractionFailedResponse reports a conversation the model could not turn
// into valid structured data, including the final raw output for debugging.
type ExtractionFailedResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code" example:"extraction_failed"`
	Message   string `json:"message"`
	RawOutput string `json:"raw_output,omitempty"`
}

// PostInteraction godoc
// @ID          postInteraction
// @Summary     Process a sales conversation
// @Description Extracts structured CRM data from the conversation and stores it as a
// @Description new interaction for the client. Supports idempotency via the
// @Description Idempotency-Key header (same key → same interaction, no model call).
// @Tags        Interactions
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       id               path    string  true  "Client ID (UUID)"  format(uuid)
// @Param       body             body    handlers.PostInteractionRequest  true  "Conversation payload"
//
// @Success     201  {object}  domain.Interaction
// @Failure     400  {object}  handlers.ErrorResponse           "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse           "Client not found"
// @Failure     422  {object}  handlers.ExtractionFailedResponse "Model output failed validation"
// @Failure     502  {object}  handlers.ErrorResponse           "Model provider unavailable"
// @Router      /clients/{id}/interactions [post]
func (h *Handlers) PostInteraction(c *gin.Context) {
	ctx := c.Request.Context()
	clientID := c.Param("id")
	if !requireUUID(c, clientID, "client") {
		return
	}

	var req PostInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation required")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idemKey != "" {
		if svc, okSvc := h.extractSvc.(*services.ExtractionService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, clientID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetInteraction(ctx, svc.DB, rec.InteractionID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, rec.Status, prev)
					return
				}
			}
		}
	}

	it, err := h.extractSvc.Process(ctx, clientID, req.Conversation)
	if err != nil {
		var exErr *services.ExtractionError
		var provErr *llm.ProviderError
		switch {
		case errors.Is(err, services.ErrClientNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "client not found")
		case errors.Is(err, services.ErrEmptyConversation), errors.Is(err, services.ErrConversationTooShort):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.As(err, &exErr):
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ExtractionFailedResponse{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeExtractionFailed,
				Message:   exErr.Reason.Error(),
				RawOutput: exErr.RawOutput,
			})
		case errors.As(err, &provErr):
			fail(c, http.StatusBadGateway, ErrCodeProviderUnavailable, provErr.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.extractSvc.(*services.ExtractionService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, clientID, idemKey, it.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, it)
}

// ListInteractions godoc
// @ID          listInteractions
// @Summary     List a client's interactions
// @Description Returns the client's full interaction history, newest first.
// @Tags        Interactions
// @Produce     json
//
// @Param       id  path  string  true  "Client ID (UUID)"  format(uuid)
//
// @Success     200  {array}  domain.Interaction
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Client not found"
// @Router      /clients/{id}/interactions [get]
func (h *Handlers) ListInteractions(c *gin.Context) {
	clientID := c.Param("id")
	if !requireUUID(c, clientID, "client") {
		return
	}
	items, err := h.extractSvc.History(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "client not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Interaction{}
	}
	ok(c, http.StatusOK, items)
}

// RecentInteractions godoc
// @ID          recentInteractions
// @Summary     Recent activity feed
// @Description Returns the latest interactions across all active clients, with the
// @Description owning client's identity attached.
// @Tags        Interactions
// @Produce     json
//
// @Param       limit  query  int  false  "Max items"  minimum(1) maximum(100) default(10)
//
// @Success     200  {array}  repo.InteractionWithClient
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /interactions/recent [get]
func (h *Handlers) RecentInteractions(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 10)
	items, err := h.statsSvc.Recent(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []repo.InteractionWithClient{}
	}
	ok(c, http.StatusOK, items)
}
