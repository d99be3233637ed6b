package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/db"
	"github.com/shepherd-church/shepherd/internal/export"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/service"
	"gorm.io/gorm"
)

// defaultCalendarName names the feed when no church name is configured.
const defaultCalendarName = "Shepherd"

type EventHandler struct {
	svc *service.EventService
	db  *gorm.DB
}

func NewEventHandler(svc *service.EventService, database *gorm.DB) *EventHandler {
	return &EventHandler{svc: svc, db: database}
}

func eventFilter(c *gin.Context) (service.EventFilter, error) {
	from, err := queryDate(c, "from", false)
	if err != nil {
		return service.EventFilter{}, err
	}
	to, err := queryDate(c, "to", true)
	if err != nil {
		return service.EventFilter{}, err
	}
	return service.EventFilter{From: from, To: to}, nil
}

// ListEvents godoc
// @Summary List events
// @Tags events
// @Security BearerAuth
// @Produce json
// @Param from query string false "Earliest start date (YYYY-MM-DD)"
// @Param to query string false "Latest start date (YYYY-MM-DD)"
// @Success 200 {array} models.Event
// @Failure 400 {object} ErrorResponse
// @Router /events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	filter, err := eventFilter(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	events, err := h.svc.List(filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent godoc
// @Summary Create an event
// @Tags events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param event body service.EventInput true "Event details"
// @Success 201 {object} models.Event
// @Failure 400 {object} ErrorResponse
// @Router /events [post]
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req service.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	event, err := h.svc.Create(req, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.svc.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Tags events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param event body service.EventInput true "Event details"
// @Success 200 {object} models.Event
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /events/{id} [put]
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req service.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	event, err := h.svc.Update(c.Param("id"), req, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes the event and its attendance records
// @Tags events
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /events/{id} [delete]
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), getUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Calendar godoc
// @Summary Event calendar feed
// @Tags events
// @Security BearerAuth
// @Produce plain
// @Param from query string false "Earliest start date (YYYY-MM-DD)"
// @Param to query string false "Latest start date (YYYY-MM-DD)"
// @Success 200 {string} string "iCalendar document"
// @Router /events/calendar.ics [get]
func (h *EventHandler) Calendar(c *gin.Context) {
	filter, err := eventFilter(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	events, err := h.svc.List(filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	name, err := db.GetSetting(h.db, models.SettingChurchName)
	if err != nil || name == "" {
		name = defaultCalendarName
	}

	c.Header("Content-Disposition", `inline; filename="events.ics"`)
	c.Data(http.StatusOK, export.ContentTypeCalendar, []byte(export.Calendar(name, events, time.Now())))
}
