package router

import (
	"net/http"

	"facerate-go/internal/handlers"
	"facerate-go/internal/runner"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RunLoader looks up the run referenced by the session and adds it to the
// context. A run id the registry no longer knows (evicted or from before a
// restart) is dropped from the session so the next visit starts fresh.
func RunLoader(registry *runner.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		runID, ok := session.Get(handlers.RunIDKey).(string)
		if !ok {
			c.Next()
			return
		}

		run, found := registry.Get(runID)
		if !found {
			session.Delete(handlers.RunIDKey)
			_ = session.Save()
			c.Next()
			return
		}

		c.Set(handlers.RunContextKey, run)
		c.Next()
	}
}

// RunRequired rejects requests that have no active run in the context.
func RunRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(handlers.RunContextKey); !exists {
			if c.GetHeader("HX-Request") == "true" {
				c.Header("HX-Redirect", "/")
				c.AbortWithStatus(http.StatusUnauthorized)
			} else {
				c.Redirect(http.StatusFound, "/")
				c.Abort()
			}
			return
		}
		c.Next()
	}
}
