package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/access"
	"github.com/shepherd-church/shepherd/internal/auth"
	"github.com/shepherd-church/shepherd/internal/models"
)

// CurrentUserResponse is the signed-in user plus the pages they may open
type CurrentUserResponse struct {
	User         *models.User `json:"user"`
	AllowedPaths []string     `json:"allowed_paths"`
}

// GetCurrentUser godoc
// @Summary Get current user
// @Description Get the currently authenticated user's information and navigable pages
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} CurrentUserResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func GetCurrentUser(authenticator auth.Authenticator, evaluator *access.Evaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticator.GetUserFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}

		paths := evaluator.AllowedPaths(user.Role)
		if paths == nil {
			paths = []string{}
		}
		c.JSON(http.StatusOK, CurrentUserResponse{User: user, AllowedPaths: paths})
	}
}
