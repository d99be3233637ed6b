package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/export"
	"github.com/shepherd-church/shepherd/internal/logstream"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/service"
)

// progressPollInterval is how often a progress stream re-reads the job when
// no live lines arrive, e.g. when the worker runs in another process.
var progressPollInterval = 2 * time.Second

type ReportHandler struct {
	svc    *service.ReportService
	broker *logstream.Broker
}

// NewReportHandler creates a ReportHandler. broker may be nil when no worker
// runs in this process.
func NewReportHandler(svc *service.ReportService, broker *logstream.Broker) *ReportHandler {
	return &ReportHandler{svc: svc, broker: broker}
}

func jobFinished(job *models.ReportJob) bool {
	return job.Status == models.JobStatusCompleted || job.Status == models.JobStatusFailed
}

// writeSSEData writes text as one event, one data line per line of text.
func writeSSEData(c *gin.Context, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(c.Writer, "data: %s\n", line)
	}
	fmt.Fprint(c.Writer, "\n")
	c.Writer.Flush()
}

// RequestReport godoc
// @Summary Request a report
// @Description Queues a donation or attendance spreadsheet for the given period
// @Tags reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param report body service.ReportInput true "Report request"
// @Success 202 {object} models.ReportJob
// @Failure 400 {object} ErrorResponse
// @Router /reports [post]
func (h *ReportHandler) RequestReport(c *gin.Context) {
	var req service.ReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := getUserID(c)
	job, err := h.svc.Request(c.Request.Context(), req, &userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// ListReports godoc
// @Summary List report jobs
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.ReportJob
// @Router /reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	jobs, err := h.svc.List()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// GetReport godoc
// @Summary Get a report job
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} models.ReportJob
// @Failure 404 {object} ErrorResponse
// @Router /reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	job, err := h.svc.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DownloadReport godoc
// @Summary Download a finished report
// @Tags reports
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /reports/{id}/download [get]
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	path, _, err := h.svc.FilePath(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Header("Content-Type", export.ContentTypeXLSX)
	c.FileAttachment(path, filepath.Base(path))
}

// StreamProgress godoc
// @Summary Stream report progress via Server-Sent Events
// @Tags reports
// @Security BearerAuth
// @Produce text/event-stream
// @Param id path string true "Report ID"
// @Success 200 {string} string "event stream"
// @Failure 404 {object} ErrorResponse
// @Router /reports/{id}/progress [get]
func (h *ReportHandler) StreamProgress(c *gin.Context) {
	job, err := h.svc.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if jobFinished(job) {
		if job.Logs != "" {
			writeSSEData(c, job.Logs)
		}
		fmt.Fprintf(c.Writer, "event: done\ndata: %s\n\n", job.Status)
		c.Writer.Flush()
		return
	}

	var lines chan string
	if h.broker != nil {
		lines = h.broker.Subscribe(job.ID)
		defer h.broker.Unsubscribe(job.ID, lines)
	}

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	streamed := false
	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case line, ok := <-lines:
			if !ok {
				// Stream closed; report the final status on the next poll.
				lines = nil
				ticker.Reset(time.Millisecond)
				continue
			}
			streamed = true
			writeSSEData(c, line)
		case <-ticker.C:
			current, err := h.svc.Get(job.ID.String())
			if err != nil {
				fmt.Fprintf(c.Writer, "event: error\ndata: %s\n\n", err)
				c.Writer.Flush()
				return
			}
			if jobFinished(current) {
				if !streamed && current.Logs != "" {
					writeSSEData(c, current.Logs)
				}
				fmt.Fprintf(c.Writer, "event: done\ndata: %s\n\n", current.Status)
				c.Writer.Flush()
				return
			}
		}
	}
}
