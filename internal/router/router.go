package router

import (
	"fmt"
	"net/http"
	"time"

	"facerate-go/internal/config"
	"facerate-go/internal/handlers"
	"facerate-go/internal/runner"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Deps are the handlers and shared state the router wires together.
type Deps struct {
	Survey   *handlers.SurveyHandler
	Admin    *handlers.AdminHandler
	Registry *runner.Registry
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again in %s.", time.Until(info.ResetTime).Round(time.Second))
}

func Setup(log *zap.Logger, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	serverConf := config.Conf.Server
	store := cookie.NewStore([]byte(serverConf.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   serverConf.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
	router.Use(sessions.Sessions("facerate", store))
	router.Use(RequestLogger(log))

	router.Use(NonceMiddleware())
	router.Use(CSRFProtection())
	router.Use(RunLoader(deps.Registry))

	router.Use(func(c *gin.Context) {
		if c.GetHeader("HX-Request") != "true" {
			nonce := c.GetString(CspNonceContextKey)
			csp := fmt.Sprintf(
				"default-src 'self'; script-src 'self' https://unpkg.com https://cdn.jsdelivr.net 'nonce-%s'; style-src 'self' 'unsafe-inline'; img-src 'self' data:",
				nonce,
			)
			c.Header("Content-Security-Policy", csp)
		}
		c.Next()
	})

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "same-origin",
		IsDevelopment:      !serverConf.ReleaseMode,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	router.Static("/assets", serverConf.AssetDirectory)

	rate := serverConf.RateLimit
	if rate <= 0 {
		rate = 30
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: uint(rate),
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/", limiter, deps.Survey.Start)

	surveyRoutes := router.Group("/survey")
	{
		surveyRoutes.GET("", limiter, deps.Survey.Start)

		active := surveyRoutes.Group("")
		active.Use(RunRequired())
		active.POST("/next", deps.Survey.Next)
		active.POST("/respond", deps.Survey.Respond)
		active.POST("/interaction", deps.Survey.Interaction)
		active.GET("/manifest", deps.Survey.Manifest)
	}

	if deps.Admin != nil {
		admin := router.Group("/admin")
		admin.Use(handlers.AdminRequired(func() string { return config.Conf.Server.AdminToken }))
		admin.GET("/summary", deps.Admin.Summary)
	}

	return router
}
