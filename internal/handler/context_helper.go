package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/smartadmission/admissions-api/internal/middleware"
	"github.com/smartadmission/admissions-api/internal/service"
)

func claimsFromContext(c *gin.Context) *service.Claims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// ActorID returns the authenticated staff account ID, or empty when absent.
func ActorID(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.Subject
}
