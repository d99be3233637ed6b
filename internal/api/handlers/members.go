package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/service"
	"github.com/shepherd-church/shepherd/internal/stats"
	qrcode "github.com/skip2/go-qrcode"
)

// QRCodeSize is the edge length in pixels of member check-in codes.
const QRCodeSize = 256

type MemberHandler struct {
	svc *service.MemberService
}

func NewMemberHandler(svc *service.MemberService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

// ListMembers godoc
// @Summary List members
// @Tags members
// @Security BearerAuth
// @Produce json
// @Param search query string false "Match against name, email or member code"
// @Param include_inactive query bool false "Include deactivated members"
// @Success 200 {array} models.Member
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))

	members, err := h.svc.List(service.MemberFilter{
		Search:          c.Query("search"),
		IncludeInactive: includeInactive,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// CreateMember godoc
// @Summary Create a member
// @Tags members
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param member body service.MemberInput true "Member details"
// @Success 201 {object} models.Member
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req service.MemberInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	member, err := h.svc.Create(req, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// GetMember godoc
// @Summary Get a member
// @Tags members
// @Security BearerAuth
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} models.Member
// @Failure 404 {object} ErrorResponse
// @Router /members/{id} [get]
func (h *MemberHandler) GetMember(c *gin.Context) {
	member, err := h.svc.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// UpdateMember godoc
// @Summary Update a member
// @Tags members
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param member body service.MemberInput true "Member details"
// @Success 200 {object} models.Member
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /members/{id} [put]
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	var req service.MemberInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	member, err := h.svc.Update(c.Param("id"), req, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// DeactivateMember godoc
// @Summary Deactivate a member
// @Description Marks the member inactive; history is kept
// @Tags members
// @Security BearerAuth
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} models.Member
// @Failure 404 {object} ErrorResponse
// @Router /members/{id}/deactivate [post]
func (h *MemberHandler) DeactivateMember(c *gin.Context) {
	member, err := h.svc.Deactivate(c.Param("id"), getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// DeleteMember godoc
// @Summary Delete a member
// @Description Soft-deletes the member. With permanent=true the member and their attendance are purged and their donations detached.
// @Tags members
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Param permanent query bool false "Purge instead of soft delete"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /members/{id} [delete]
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	permanent, _ := strconv.ParseBool(c.Query("permanent"))

	if err := h.svc.Delete(c.Param("id"), permanent, getUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AttendanceHistory godoc
// @Summary Member attendance by month
// @Tags members
// @Security BearerAuth
// @Produce json
// @Param id path string true "Member ID"
// @Param limit query int false "Number of months (default 6)"
// @Success 200 {array} stats.MonthBucket
// @Failure 404 {object} ErrorResponse
// @Router /members/{id}/attendance-history [get]
func (h *MemberHandler) AttendanceHistory(c *gin.Context) {
	limit := queryInt(c, "limit", stats.DefaultMonthLimit)

	history, err := h.svc.AttendanceHistory(c.Param("id"), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if history == nil {
		history = []stats.MonthBucket{}
	}
	c.JSON(http.StatusOK, history)
}

// QRCode godoc
// @Summary Member check-in code
// @Description PNG QR code carrying the member's check-in payload
// @Tags members
// @Security BearerAuth
// @Produce png
// @Param id path string true "Member ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /members/{id}/qrcode [get]
func (h *MemberHandler) QRCode(c *gin.Context) {
	member, err := h.svc.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	png, err := qrcode.Encode(service.QRPayload(member.MemberCode), qrcode.Medium, QRCodeSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
