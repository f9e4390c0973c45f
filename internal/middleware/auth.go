package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"propertyhub/internal/identity"
	"propertyhub/internal/models"
	"propertyhub/internal/render"
	"propertyhub/internal/repository"
)

const currentUserKey = "current_user"

// UserLookup resolves the local user row of an authenticated identity.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// Authenticate exchanges the session token for an identity, then loads the
// local user by the identity's email. A request without a valid session is
// rejected before the datastore is queried.
func Authenticate(provider identity.Provider, users UserLookup, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			render.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ident, err := provider.GetUser(c.Request.Context(), token)
		if err != nil {
			render.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := users.FindByEmail(c.Request.Context(), ident.Email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				render.Error(c, http.StatusForbidden, "Forbidden")
				return
			}
			render.Error(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// SessionToken reads the bearer token, falling back to the session cookie.
func SessionToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}
