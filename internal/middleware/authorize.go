package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propertyhub/internal/policy"
	"propertyhub/internal/render"
)

// Authorize lets the request through only when the current user's role is in
// the policy table entry for op.
func Authorize(op policy.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			render.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if !policy.Allows(op, user.Role) {
			render.Error(c, http.StatusForbidden, "Forbidden")
			return
		}

		c.Next()
	}
}
