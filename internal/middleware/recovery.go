package middleware

import (
	"fmt"
	"net/http"

	"chartkit-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic in any handler into a generic 500 response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		fields := LogFields(c.Request.Context())
		fields["path"] = c.Request.URL.Path
		fields["panic"] = fmt.Sprint(recovered)
		logger.WithFields(fields).Error("handler panicked")

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"message": "an unexpected error occurred while handling the request",
		})
	})
}
