// Stats HTTP handlers.
//
// This file exposes read-only reporting endpoints:
//   - GET /stats/pipeline     (interaction count per deal stage)
//   - GET /clients/{id}/stats (per-client summary)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-crm-backend/internal/services"
)

// PipelineStats godoc
// @ID          pipelineStats
// @Summary     Pipeline distribution
// @Description Returns the interaction count per deal stage across visible clients.
// @Tags        Stats
// @Produce     json
//
// @Param       include_inactive  query  bool  false  "Include archived clients"
//
// @Success     200  {object} map[string]int64
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /stats/pipeline [get]
func (h *Handlers) PipelineStats(c *gin.Context) {
	dist, err := h.statsSvc.Pipeline(c.Request.Context(), includeInactive(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, dist)
}

// ClientStats godoc
// @ID          clientStats
// @Summary     Per-client summary
// @Description Returns interaction totals, first/last contact, and the deal stages
// @Description seen for one client.
// @Tags        Stats
// @Produce     json
//
// @Param       id  path  string  true  "Client ID (UUID)"  format(uuid)
//
// @Success     200  {object} repo.ClientStats
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Client not found"
// @Router      /clients/{id}/stats [get]
func (h *Handlers) ClientStats(c *gin.Context) {
	id := c.Param("id")
	if !requireUUID(c, id, "client") {
		return
	}
	stats, err := h.statsSvc.Client(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "client not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}
