package router

import (
	"errors"
	"net/http"

	"facerate-go/internal/utils"

	"github.com/gin-gonic/gin"
)

const CspNonceContextKey = "csp_nonce"

// NonceMiddleware creates a fresh nonce for every request and adds it to the
// context for the CSP header and the inline survey script.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := utils.GenerateSecureToken(16)
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, errors.New("failed to generate CSP nonce"))
			return
		}
		c.Set(CspNonceContextKey, nonce)
		c.Next()
	}
}
