package router

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"facerate-go/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenFormKey    = "_csrf"
	csrfTokenContextKey = "csrf_token"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

// CSRFProtection issues a per-session token and checks it on unsafe methods.
// The token is read from the form first and then from the header sent by
// htmx and the interaction beacon.
func CSRFProtection() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		token, ok := session.Get(csrfTokenSessionKey).(string)
		if !ok {
			newToken, err := utils.GenerateSecureToken(32)
			if err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to generate CSRF token"))
				return
			}
			token = newToken
			session.Set(csrfTokenSessionKey, token)
			if err := session.Save(); err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to save session"))
				return
			}
		}

		c.Set(csrfTokenContextKey, token)

		if isUnsafe(c.Request.Method) {
			submitted := c.PostForm(csrfTokenFormKey)
			if submitted == "" {
				submitted = c.GetHeader(csrfTokenHeaderKey)
			}
			if !ok || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
				if c.GetHeader("HX-Request") == "true" {
					c.Header("HX-Redirect", "/")
					c.AbortWithStatus(http.StatusForbidden)
					return
				}
				c.AbortWithError(http.StatusForbidden, errors.New("invalid CSRF token"))
				return
			}
		}

		c.Next()
	}
}

func isUnsafe(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
