package handlers

import (
	"errors"
	"net/http"

	"shelf/internal/models"
	"shelf/internal/service"
	"shelf/internal/thermostat"

	"github.com/gin-gonic/gin"
)

const (
	statusRoomDeleted  = "room_deleted"
	statusRoomRenamed  = "room_renamed"
	statusTargetSet    = "target_set"
	statusPrioritySet  = "priority_set"
	statusRoomsReorder = "rooms_reordered"
	statusTelemetryOK  = "telemetry_accepted"
	errListRooms       = "failed to load rooms"
)

type addRoomRequest struct {
	SensorID string `json:"sensor_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type"`
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

type targetRequest struct {
	TargetC *float64 `json:"target_c" binding:"required"`
}

type priorityRequest struct {
	Priority *int `json:"priority" binding:"required"`
}

type orderRequest struct {
	Order []string `json:"order" binding:"required"`
}

type telemetryRequest struct {
	TemperatureC *float64 `json:"temp_c" binding:"required"`
	HumidityPct  float64  `json:"humidity"`
	BatteryPct   float64  `json:"battery"`
	TargetC      *float64 `json:"target_c"`
	Priority     *int     `json:"priority"`
}

// @Summary      List rooms
// @Tags         rooms
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, rooms"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/rooms [get]
// @Security     BearerAuth
func (h *Handler) listRooms(c *gin.Context) {
	home, err := h.services.Monitoring.GetHome(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListRooms, "rooms_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(home.Rooms), "rooms": home.Rooms})
}

// @Summary      Pair a sensor with a new room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.RoomView
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/rooms [post]
// @Security     BearerAuth
func (h *Handler) addRoom(c *gin.Context) {
	var req addRoomRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	room, err := h.services.Home.AddRoom(c.Request.Context(), service.NewRoomParams{
		SensorID: req.SensorID,
		Name:     req.Name,
		Type:     req.Type,
	})
	if err != nil {
		h.respondServiceError(c, "room_add_failed", err, "sensor_id", req.SensorID)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// @Summary      Remove a room
// @Tags         rooms
// @Produce      json
// @Param        id   path      string  true  "Sensor ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteRoom(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Home.DeleteRoom(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, "room_delete_failed", err, "sensor_id", id)
		return
	}
	h.respondWithStatusAndHome(c, statusRoomDeleted, gin.H{"sensor_id": id})
}

// @Summary      Rename a room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Sensor ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{id}/name [put]
// @Security     BearerAuth
func (h *Handler) renameRoom(c *gin.Context) {
	var req renameRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	id := c.Param("id")
	if err := h.services.Home.RenameRoom(c.Request.Context(), id, req.Name); err != nil {
		h.respondServiceError(c, "room_rename_failed", err, "sensor_id", id)
		return
	}
	h.respondWithStatusAndHome(c, statusRoomRenamed, gin.H{"sensor_id": id})
}

// @Summary      Set a room's target temperature
// @Description  Out-of-range targets are clamped; the response reports the stored value.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Sensor ID"
// @Success      200  {object}  map[string]interface{}  "status, target_c, clamped, home"
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{id}/target [put]
// @Security     BearerAuth
func (h *Handler) setTarget(c *gin.Context) {
	var req targetRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	id := c.Param("id")
	res, err := h.services.Home.SetTarget(c.Request.Context(), id, *req.TargetC)
	if err != nil {
		h.respondServiceError(c, "room_set_target_failed", err, "sensor_id", id)
		return
	}
	h.respondWithStatusAndHome(c, statusTargetSet, gin.H{
		"sensor_id": id,
		"target_c":  res.Applied,
		"clamped":   res.Clamped,
	})
}

// @Summary      Set a room's priority
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Sensor ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{id}/priority [put]
// @Security     BearerAuth
func (h *Handler) setPriority(c *gin.Context) {
	var req priorityRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	id := c.Param("id")
	if err := h.services.Home.SetPriority(c.Request.Context(), id, *req.Priority); err != nil {
		h.respondServiceError(c, "room_set_priority_failed", err, "sensor_id", id)
		return
	}
	h.respondWithStatusAndHome(c, statusPrioritySet, gin.H{"sensor_id": id, "priority": *req.Priority})
}

// @Summary      Reorder rooms
// @Description  order must list every sensor ID exactly once.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/rooms/order [put]
// @Security     BearerAuth
func (h *Handler) reorderRooms(c *gin.Context) {
	var req orderRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	if err := h.services.Home.ReorderRooms(c.Request.Context(), req.Order); err != nil {
		if errors.Is(err, thermostat.ErrUnknownSensor) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.respondServiceError(c, "rooms_reorder_failed", err)
		return
	}
	h.respondWithStatusAndHome(c, statusRoomsReorder, gin.H{"order": req.Order})
}

// @Summary      Push a sensor reading
// @Description  Same payload the hub publishes over MQTT. target_c and priority are optional.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Sensor ID"
// @Success      202  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{id}/telemetry [post]
// @Security     BearerAuth
func (h *Handler) postTelemetry(c *gin.Context) {
	var req telemetryRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	id := c.Param("id")
	err := h.services.Telemetry.Ingest(c.Request.Context(), id, models.RoomTelemetry{
		TemperatureC: *req.TemperatureC,
		HumidityPct:  req.HumidityPct,
		BatteryPct:   req.BatteryPct,
		TargetC:      req.TargetC,
		Priority:     req.Priority,
	})
	if err != nil {
		h.respondServiceError(c, "telemetry_ingest_failed", err, "sensor_id", id)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusTelemetryOK})
}
