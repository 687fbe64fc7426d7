package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faxlab-academy-api/internal/middleware"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/response"
)

func sessionFromContext(c *gin.Context) *models.Session {
	return middleware.SessionFromContext(c)
}

// requireSession writes the sign-in error and returns nil when the request is anonymous.
func requireSession(c *gin.Context) *models.Session {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return nil
	}
	return session
}
