package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/calendar-booking-api/internal/models"
	appErrors "github.com/noah-isme/calendar-booking-api/pkg/errors"
	"github.com/noah-isme/calendar-booking-api/pkg/response"
)

// ContextOwnerKey is the gin context key storing the owner's token claims.
const ContextOwnerKey = "currentOwner"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.OwnerClaims, error)
}

// JWT protects owner routes by requiring a valid access token.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextOwnerKey, claims)
		c.Next()
	}
}

// OwnerFromContext returns the claims set by JWT, if any.
func OwnerFromContext(c *gin.Context) *models.OwnerClaims {
	value, exists := c.Get(ContextOwnerKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.OwnerClaims)
	return claims
}
