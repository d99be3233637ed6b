package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/audit"
	"github.com/shepherd-church/shepherd/internal/export"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/service"
	"github.com/shepherd-church/shepherd/internal/stats"
	"gorm.io/gorm"
)

type DonationHandler struct {
	svc *service.DonationService
	db  *gorm.DB
}

func NewDonationHandler(svc *service.DonationService, database *gorm.DB) *DonationHandler {
	return &DonationHandler{svc: svc, db: database}
}

// breakdown resolves the requested window: explicit start/end dates win
// over the range preset.
func (h *DonationHandler) breakdown(c *gin.Context) (stats.BreakdownSummary, error) {
	start, err := queryDate(c, "start", false)
	if err != nil {
		return stats.BreakdownSummary{}, err
	}
	end, err := queryDate(c, "end", true)
	if err != nil {
		return stats.BreakdownSummary{}, err
	}
	if start.IsZero() != end.IsZero() {
		return stats.BreakdownSummary{}, &service.ValidationError{Message: "start and end must be given together"}
	}
	if !start.IsZero() {
		return h.svc.BreakdownRange(start, end)
	}
	return h.svc.Breakdown(c.Query("range"))
}

// ListDonations godoc
// @Summary List donations
// @Tags donations
// @Security BearerAuth
// @Produce json
// @Param from query string false "Earliest date (YYYY-MM-DD)"
// @Param to query string false "Latest date (YYYY-MM-DD)"
// @Param type query string false "Donation type"
// @Param member_id query string false "Only this member's named donations"
// @Success 200 {array} models.Donation
// @Failure 400 {object} ErrorResponse
// @Router /donations [get]
func (h *DonationHandler) ListDonations(c *gin.Context) {
	from, err := queryDate(c, "from", false)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	to, err := queryDate(c, "to", true)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	memberID, err := queryUUID(c, "member_id")
	if err != nil {
		handleServiceError(c, err)
		return
	}

	donations, err := h.svc.List(service.DonationFilter{
		From:     from,
		To:       to,
		Type:     models.DonationType(c.Query("type")),
		MemberID: memberID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, donations)
}

// CreateDonation godoc
// @Summary Record a donation
// @Tags donations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param donation body service.DonationInput true "Donation details"
// @Success 201 {object} models.Donation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /donations [post]
func (h *DonationHandler) CreateDonation(c *gin.Context) {
	var req service.DonationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	donation, err := h.svc.Create(req, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, donation)
}

// UpdateDonation godoc
// @Summary Update a donation
// @Tags donations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Donation ID"
// @Param donation body service.DonationInput true "Donation details"
// @Success 200 {object} models.Donation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /donations/{id} [put]
func (h *DonationHandler) UpdateDonation(c *gin.Context) {
	var req service.DonationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	donation, err := h.svc.Update(c.Param("id"), req, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, donation)
}

// DeleteDonation godoc
// @Summary Delete a donation
// @Tags donations
// @Security BearerAuth
// @Param id path string true "Donation ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /donations/{id} [delete]
func (h *DonationHandler) DeleteDonation(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), getUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Breakdown godoc
// @Summary Donation breakdown
// @Description Totals per donation type over a preset range (7d, 30d, 3m) or an explicit start/end
// @Tags donations
// @Security BearerAuth
// @Produce json
// @Param range query string false "Preset range (default 30d)"
// @Param start query string false "Start date (YYYY-MM-DD)"
// @Param end query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} stats.BreakdownSummary
// @Failure 400 {object} ErrorResponse
// @Router /donations/breakdown [get]
func (h *DonationHandler) Breakdown(c *gin.Context) {
	summary, err := h.breakdown(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportDonations godoc
// @Summary Export donations
// @Description Spreadsheet of the donations in a range with a per-type summary sheet
// @Tags donations
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param range query string false "Preset range (default 30d)"
// @Param start query string false "Start date (YYYY-MM-DD)"
// @Param end query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /donations/export [get]
func (h *DonationHandler) ExportDonations(c *gin.Context) {
	summary, err := h.breakdown(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	donations, err := h.svc.List(service.DonationFilter{From: summary.Start, To: summary.End})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteDonations(&buf, donations, summary); err != nil {
		handleServiceError(c, err)
		return
	}

	userID := getUserID(c)
	audit.LogAction(h.db, userID, audit.ActionExportDonations, "donations", map[string]interface{}{
		"start": summary.Start,
		"end":   summary.End,
		"count": len(donations),
	})

	filename := fmt.Sprintf("donations-%s-%s.xlsx", summary.Start.Format("2006-01-02"), summary.End.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
