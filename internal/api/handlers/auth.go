package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/audit"
	"github.com/shepherd-church/shepherd/internal/auth"
	"gorm.io/gorm"
)

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token. The token is also set as a cookie for page loads.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body auth.LoginRequest true "Login credentials"
// @Success 200 {object} auth.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func Login(authenticator auth.Authenticator, db *gorm.DB, cookieMaxAge int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}

		resp, err := authenticator.Login(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				slog.Warn("Failed login", "username", req.Username, "ip", c.ClientIP())
				c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}

		audit.LogAction(db, resp.User.ID, audit.ActionLogin, audit.Resource("user", resp.User.ID), map[string]interface{}{
			"ip": c.ClientIP(),
		})

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(auth.TokenCookie, resp.Token, cookieMaxAge, "/", "", c.Request.TLS != nil, true)
		c.JSON(http.StatusOK, resp)
	}
}

// Logout godoc
// @Summary Log out
// @Description Clears the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /auth/logout [post]
func Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.TokenCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
