package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/auth"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/service"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of replies that carry no resource
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthCheck godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleServiceError maps service-layer errors to HTTP status codes.
func handleServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}
	if errors.Is(err, service.ErrForbidden) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
		return
	}
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Message})
		return
	}
	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: conflictErr.Message})
		return
	}
	slog.Error("unhandled service error", "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// currentUser returns the authenticated user. Routes using it sit behind
// the auth middleware, so the user is always present.
func currentUser(c *gin.Context) *models.User {
	user, err := auth.UserFromContext(c)
	if err != nil {
		return &models.User{}
	}
	return user
}

func getUserID(c *gin.Context) uuid.UUID {
	return currentUser(c).ID
}

// queryDate parses an optional YYYY-MM-DD or RFC 3339 query parameter.
// Dates without a time of day are taken at the start of the day, or its
// last instant when endOfDay is set.
func queryDate(c *gin.Context, key string, endOfDay bool) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, &service.ValidationError{Message: key + " must be a date (YYYY-MM-DD)"}
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

// queryUUID parses an optional UUID query parameter.
func queryUUID(c *gin.Context, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &service.ValidationError{Message: key + " must be a UUID"}
	}
	return &id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}
