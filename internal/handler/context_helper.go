package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eduport/center-api/internal/middleware"
	"github.com/eduport/center-api/internal/models"
)

// claimsFromContext returns the authenticated claims set by the JWT
// middleware, or nil on unauthenticated routes.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, _ := c.Value(middleware.ContextUserKey).(*models.JWTClaims)
	return claims
}
