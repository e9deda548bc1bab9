package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusPowerSet  = "power_set"
	statusModeSet   = "mode_set"
	statusMasterSet = "master_set"

	errGetHome = "failed to load home"
)

type powerRequest struct {
	On *bool `json:"on" binding:"required"`
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"` // HEAT | COOL
}

type masterRequest struct {
	Connected *bool `json:"connected" binding:"required"`
}

// SetModeRequest is an exported model for Swagger docs of the setMode payload.
type SetModeRequest struct {
	// Mode to set. Allowed: HEAT, COOL
	Mode string `json:"mode" example:"HEAT"`
}

// Respond with a status and include the current home if available (best-effort).
func (h *Handler) respondWithStatusAndHome(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	home, err := h.services.Monitoring.GetHome(c.Request.Context())
	if err == nil {
		resp["home"] = home
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get home
// @Description  Controller state, active room, mode, power, hub connection and every room.
// @Tags         home
// @Produce      json
// @Success      200  {object}  models.HomeSnapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/home [get]
// @Security     BearerAuth
func (h *Handler) getHome(c *gin.Context) {
	home, err := h.services.Monitoring.GetHome(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetHome, "home_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, home)
}

// @Summary      Switch power
// @Tags         home
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, home"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/home/power [post]
// @Security     BearerAuth
func (h *Handler) setPower(c *gin.Context) {
	var req powerRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	if err := h.services.Home.SetPower(c.Request.Context(), *req.On); err != nil {
		h.respondServiceError(c, "home_set_power_failed", err, "on", *req.On)
		return
	}
	h.respondWithStatusAndHome(c, statusPowerSet, gin.H{"on": *req.On})
}

// @Summary      Set mode
// @Tags         home
// @Accept       json
// @Produce      json
// @Param        body  body   SetModeRequest  true  "Mode payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/home/mode [post]
// @Security     BearerAuth
func (h *Handler) setMode(c *gin.Context) {
	var req modeRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	if err := h.services.Home.SetMode(c.Request.Context(), req.Mode); err != nil {
		h.respondServiceError(c, "home_set_mode_failed", err, "mode", req.Mode)
		return
	}
	h.respondWithStatusAndHome(c, statusModeSet, gin.H{"mode": req.Mode})
}

// @Summary      Report hub connection
// @Description  Manual override for setups without the MQTT bridge.
// @Tags         home
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/home/master [post]
// @Security     BearerAuth
func (h *Handler) setMaster(c *gin.Context) {
	var req masterRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	if err := h.services.Home.SetMasterConnected(c.Request.Context(), *req.Connected); err != nil {
		h.respondServiceError(c, "home_set_master_failed", err)
		return
	}
	h.respondWithStatusAndHome(c, statusMasterSet, gin.H{"connected": *req.Connected})
}
