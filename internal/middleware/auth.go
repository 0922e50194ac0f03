package middleware

import (
	"context"
	"strings"

	"taskboard/internal/models"
	"taskboard/pkg/apierrors"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// authenticated user on the context.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			apierrors.Respond(c, apierrors.New(apierrors.ErrUnauthenticated, "No token provided"))
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func CurrentUserID(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return ""
}

// SetCurrentUser is used by tests and by handlers mounted behind other auth.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(currentUserKey, user)
}
