package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/service"
)

type AttendanceHandler struct {
	svc *service.AttendanceService
}

func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// QRCheckInRequest is a scanned member code for an event
type QRCheckInRequest struct {
	EventID uuid.UUID `json:"event_id" binding:"required"`
	Payload string    `json:"payload" binding:"required"`
}

// ListAttendance godoc
// @Summary List attendance records
// @Tags attendance
// @Security BearerAuth
// @Produce json
// @Param event_id query string false "Only records for this event"
// @Param member_id query string false "Only records for this member"
// @Success 200 {array} models.Attendance
// @Failure 400 {object} ErrorResponse
// @Router /attendance [get]
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	eventID, err := queryUUID(c, "event_id")
	if err != nil {
		handleServiceError(c, err)
		return
	}
	memberID, err := queryUUID(c, "member_id")
	if err != nil {
		handleServiceError(c, err)
		return
	}

	records, err := h.svc.List(service.AttendanceFilter{EventID: eventID, MemberID: memberID})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// RecordAttendance godoc
// @Summary Record a check-in
// @Description Checks in a member, or a visitor by name
// @Tags attendance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param attendance body service.AttendanceInput true "Check-in"
// @Success 201 {object} models.Attendance
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attendance [post]
func (h *AttendanceHandler) RecordAttendance(c *gin.Context) {
	var req service.AttendanceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	record, err := h.svc.Record(req, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// RecordQRAttendance godoc
// @Summary Record a check-in from a scanned member code
// @Tags attendance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param checkin body QRCheckInRequest true "Scanned code"
// @Success 201 {object} models.Attendance
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attendance/qr [post]
func (h *AttendanceHandler) RecordQRAttendance(c *gin.Context) {
	var req QRCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	record, err := h.svc.RecordByQR(req.EventID, req.Payload, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// DeleteAttendance godoc
// @Summary Delete an attendance record
// @Tags attendance
// @Security BearerAuth
// @Param id path string true "Attendance ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) DeleteAttendance(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), getUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
