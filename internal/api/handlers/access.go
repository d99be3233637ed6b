package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/access"
)

type AccessHandler struct {
	evaluator *access.Evaluator
}

func NewAccessHandler(evaluator *access.Evaluator) *AccessHandler {
	return &AccessHandler{evaluator: evaluator}
}

// AccessCheckResponse is the outcome of a navigation check
type AccessCheckResponse struct {
	Path    string `json:"path"`
	Allowed bool   `json:"allowed"`
	Target  string `json:"target"`
}

// Check godoc
// @Summary Check page access
// @Description Reports whether the current user may open a page, and where a denied navigation lands
// @Tags access
// @Security BearerAuth
// @Produce json
// @Param path query string true "Page path"
// @Success 200 {object} AccessCheckResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /access/check [get]
func (h *AccessHandler) Check(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "path is required"})
		return
	}

	target, allowed := h.evaluator.Resolve(currentUser(c).Role, path)
	c.JSON(http.StatusOK, AccessCheckResponse{Path: path, Allowed: allowed, Target: target})
}

// Paths godoc
// @Summary List accessible pages
// @Tags access
// @Security BearerAuth
// @Produce json
// @Success 200 {array} string
// @Failure 401 {object} ErrorResponse
// @Router /access/paths [get]
func (h *AccessHandler) Paths(c *gin.Context) {
	paths := h.evaluator.AllowedPaths(currentUser(c).Role)
	if paths == nil {
		paths = []string{}
	}
	c.JSON(http.StatusOK, paths)
}
