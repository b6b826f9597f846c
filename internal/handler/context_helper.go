package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-review-api/internal/middleware"
	"github.com/noah-isme/content-review-api/internal/models"
	"github.com/noah-isme/content-review-api/internal/service"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
	"github.com/noah-isme/content-review-api/pkg/response"
)

func sessionFromContext(c *gin.Context) (models.Session, bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Session{}, false
	}
	return session, true
}

// respondMutation reports a comment mutation. A failed remote call whose local change was kept is
// still a success for the viewer, so it is answered with 202 and the failure in meta.
func respondMutation(c *gin.Context, status int, data interface{}, err error) {
	if err == nil {
		response.JSON(c, status, data)
		return
	}
	var mutErr *service.MutationError
	if errors.As(err, &mutErr) && mutErr.Kept {
		response.JSON(c, http.StatusAccepted, data, map[string]interface{}{
			"kept":    true,
			"op":      mutErr.Op,
			"warning": appErrors.FromError(mutErr.Err),
		})
		return
	}
	response.Error(c, err)
}
