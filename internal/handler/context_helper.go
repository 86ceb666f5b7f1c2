package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/calendar-booking-api/internal/middleware"
	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.OwnerClaims {
	return middleware.OwnerFromContext(c)
}

// requireSameOwner returns the path owner when the caller's token was issued for it.
func requireSameOwner(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	ownerID := strings.TrimSpace(c.Param("ownerId"))
	if ownerID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "owner id is required")
	}
	if ownerID != claims.OwnerID {
		return "", appErrors.Clone(appErrors.ErrForbidden, "calendar belongs to another owner")
	}
	return ownerID, nil
}
