package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
	"github.com/noah-isme/content-review-api/pkg/response"
)

// RequireRoles only lets sessions with one of roles through.
func RequireRoles(roles ...models.SessionRole) gin.HandlerFunc {
	allowed := make(map[models.SessionRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[session.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role not allowed to perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}
