// Follow-up HTTP handlers.
//
// This file exposes REST endpoints for follow-up drafting:
//   - POST /interactions/{id}/followup (draft email + message)
//   - GET  /interactions/{id}/followup (fetch stored drafts)
//   - GET  /followups/due              (interactions needing outreach)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/llm"
	"github.com/tbourn/go-crm-backend/internal/repo"
	"github.com/tbourn/go-crm-backend/internal/services"
	"github.com/tbourn/go-crm-backend/internal/utils"
)

// GenerateFollowUp godoc
// @ID          generateFollowUp
// @Summary     Draft follow-up content
// @Description Generates and stores a follow-up email and a short chat message for
// @Description the interaction. Each interaction gets at most one follow-up.
// @Tags        FollowUps
// @Produce     json
//
// @Param       id  path  string  true  "Interaction ID (UUID)"  format(uuid)
//
// @Success     201  {object} domain.FollowUp
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Interaction not found"
// @Failure     409  {object} handlers.ErrorResponse "Follow-up already exists"
// @Failure     502  {object} handlers.ErrorResponse "Model provider unavailable"
// @Router      /interactions/{id}/followup [post]
func (h *Handlers) GenerateFollowUp(c *gin.Context) {
	id := c.Param("id")
	if !requireUUID(c, id, "interaction") {
		return
	}

	fu, err := h.fuSvc.Generate(c.Request.Context(), id)
	if err != nil {
		var provErr *llm.ProviderError
		switch {
		case errors.Is(err, services.ErrInteractionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "interaction not found")
		case errors.Is(err, services.ErrFollowUpExists):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		case errors.Is(err, services.ErrFollowUpTooShort):
			fail(c, http.StatusUnprocessableEntity, ErrCodeGenerationFailed, err.Error())
		case errors.As(err, &provErr):
			fail(c, http.StatusBadGateway, ErrCodeProviderUnavailable, provErr.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, fu)
}

// GetFollowUp godoc
// @ID          getFollowUp
// @Summary     Fetch stored follow-up
// @Description Returns the previously generated follow-up for an interaction.
// @Tags        FollowUps
// @Produce     json
//
// @Param       id  path  string  true  "Interaction ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.FollowUp
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /interactions/{id}/followup [get]
func (h *Handlers) GetFollowUp(c *gin.Context) {
	id := c.Param("id")
	if !requireUUID(c, id, "interaction") {
		return
	}
	fu, err := h.fuSvc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInteractionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "interaction not found")
		case errors.Is(err, services.ErrFollowUpNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "follow-up not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, fu)
}

// DueFollowUps godoc
// @ID          dueFollowUps
// @Summary     Interactions needing follow-up
// @Description Lists interactions whose follow-up date falls within the next N days
// @Description and that have no stored follow-up yet.
// @Tags        FollowUps
// @Produce     json
//
// @Param       days  query  int  false  "Window in days"  minimum(1) default(7)
//
// @Success     200  {array}  repo.InteractionWithClient
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /followups/due [get]
func (h *Handlers) DueFollowUps(c *gin.Context) {
	days := utils.AtoiDefault(c.Query("days"), 7)
	items, err := h.fuSvc.Due(c.Request.Context(), days)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []repo.InteractionWithClient{}
	}
	ok(c, http.StatusOK, items)
}
