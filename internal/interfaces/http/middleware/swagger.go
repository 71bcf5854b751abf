package middleware

import (
	"net/http"

	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SwaggerGuard hides the API docs unless enabled. When guard is set (the
// admin auth middleware), the docs also require an admin session.
func SwaggerGuard(enabled bool, guard gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound, "Documentação da API indisponível", GetRequestID(c)))
			return
		}
		if guard != nil {
			guard(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}
