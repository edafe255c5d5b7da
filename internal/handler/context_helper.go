package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-adp-api/internal/middleware"
	"github.com/noah-isme/hostel-adp-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// hostelScopeOf returns the hostel a reception admin is pinned to, or "" for
// master admins.
func hostelScopeOf(claims *models.JWTClaims) string {
	if claims == nil || claims.Role != models.RoleReceptionAdmin || claims.HostelID == nil {
		return ""
	}
	return *claims.HostelID
}
