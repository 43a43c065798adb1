package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resellerdash/pkg/utils"
)

// CronSecretMiddleware guards the settlement trigger with a shared secret sent
// as a bearer token and checked against its bcrypt hash. With enforce false
// every request passes, which is how non-production environments run.
func CronSecretMiddleware(secretHash string, enforce bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enforce {
			c.Next()
			return
		}

		secret, ok := bearerToken(c)
		if !ok || secretHash == "" || utils.CompareSecret(secretHash, secret) != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}
