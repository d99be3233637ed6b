package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/access"
	"github.com/shepherd-church/shepherd/internal/auth"
)

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

// RequireModule ensures the user's role may perform action on module.
// It must run after the authentication middleware.
func RequireModule(evaluator *access.Evaluator, module string, action access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.UserFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !evaluator.CanPerform(user.Role, module, action) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GuardPages protects front-end page routes. Anonymous visitors go to the
// login page; signed-in users without access are silently sent to the
// fallback page. It must run after auth Identify.
func GuardPages(evaluator *access.Evaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		user, err := auth.UserFromContext(c)
		if err != nil {
			c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(path))
			c.Abort()
			return
		}

		target, allowed := evaluator.Resolve(user.Role, path)
		if allowed {
			c.Next()
			return
		}
		if target == access.RequestPath(path) {
			// The fallback itself is closed to this role.
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}
