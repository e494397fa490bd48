package router

import (
	"net/http"

	"github.com/mashcatg/visa-cracked/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthRequired verifies the bearer token through the auth boundary and
// stores the resolved user id on the context.
func AuthRequired(log *zap.Logger, verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearer(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			log.Debug("Token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
