package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supercycler"
)

const (
	statusOK       = "ok"
	statusStarted  = "started"
	statusStopped  = "stopped"
	statusTicked   = "ticked"
	statusOverride = "override_applied"

	errStartCycle = "failed to start cycle"
	errStopCycle  = "failed to stop cycle"
	errGetStatus  = "failed to load status"
)

// logAndJSONError centralizes error logging and the error response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondWithStatus replies with an action status plus the current
// cycle snapshot when it is available (best-effort).
func (h *Handler) respondWithStatus(c *gin.Context, action string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": action}
	for k, v := range extra {
		resp[k] = v
	}
	if st, err := h.services.Monitoring.Status(ctx); err == nil {
		resp["cycle"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// overrideRequest is the manual phase command payload.
type overrideRequest struct {
	Phase string `json:"phase" binding:"required"` // ON | OFF
}

// OverrideRequest documents the override payload for Swagger.
type OverrideRequest struct {
	// Phase to force. Allowed: ON, OFF
	Phase string `json:"phase" example:"ON"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Enable the photoperiod cycle
// @Tags         cycle
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, cycle"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cycle/start [post]
// @Security     BearerAuth
func (h *Handler) startCycle(c *gin.Context) {
	if err := h.services.Cycle.Start(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errStartCycle, "cycle_start_failed", err)
		return
	}
	h.respondWithStatus(c, statusStarted, gin.H{})
}

// @Summary      Disable the photoperiod cycle
// @Tags         cycle
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cycle/stop [post]
// @Security     BearerAuth
func (h *Handler) stopCycle(c *gin.Context) {
	if err := h.services.Cycle.Stop(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errStopCycle, "cycle_stop_failed", err)
		return
	}
	h.respondWithStatus(c, statusStopped, gin.H{})
}

// @Summary      Run one scheduling pass now
// @Description  Same pass the periodic runner executes; a no-op while the cycle is stopped or inside an applied phase window.
// @Tags         cycle
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/cycle/tick [post]
// @Security     BearerAuth
func (h *Handler) tickCycle(c *gin.Context) {
	if err := h.services.Cycle.Tick(c.Request.Context()); err != nil {
		// The tick ran but could not reach the device or storage.
		h.logAndJSONError(c, http.StatusBadGateway, err.Error(), "cycle_tick_failed", err)
		return
	}
	h.respondWithStatus(c, statusTicked, gin.H{})
}

// @Summary      Manually force the light ON or OFF
// @Description  Issues a one-off command outside the schedule. The next scheduled pass may command the plug back.
// @Tags         cycle
// @Accept       json
// @Produce      json
// @Param        body  body   OverrideRequest  true  "Phase payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/cycle/override [post]
// @Security     BearerAuth
func (h *Handler) overridePhase(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	phase := supercycler.Phase(req.Phase)
	if !phase.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phase must be ON or OFF"})
		return
	}
	if err := h.services.Cycle.Override(c.Request.Context(), phase); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, err.Error(), "cycle_override_failed", err, "phase", phase)
		return
	}
	h.respondWithStatus(c, statusOverride, gin.H{"phase": phase})
}

// @Summary      Current cycle status
// @Tags         cycle
// @Produce      json
// @Success      200  {object}  supercycler.Status
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/cycle/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Monitoring.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "cycle_get_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
