package router

import (
	"time"

	"github.com/mashcatg/visa-cracked/internal/auth"
	"github.com/mashcatg/visa-cracked/internal/handlers"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again later.")
}

// Setup wires middleware and routes onto a fresh gin engine.
func Setup(
	log *zap.Logger,
	verifier auth.Verifier,
	interviews *handlers.InterviewHandler,
	results *handlers.ResultsHandler,
	reports *handlers.ReportHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	// The start and analyze endpoints each trigger a paid upstream call;
	// keep them behind a rate limit.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 10,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	// Shared reports are readable without a token.
	router.GET("/public/interviews/:id/report", reports.ShowPublic)

	api := router.Group("/api")
	api.Use(AuthRequired(log, verifier))
	{
		interviewRoutes := api.Group("/interviews")
		{
			interviewRoutes.GET("", interviews.List)
			interviewRoutes.POST("", interviews.Create)
			interviewRoutes.POST("/:id/start", limiter, interviews.Start)
			interviewRoutes.POST("/:id/results", results.Retrieve)
			interviewRoutes.POST("/:id/analyze", limiter, results.Analyze)
			interviewRoutes.GET("/:id/report", reports.Show)
			interviewRoutes.GET("/:id/report/download", reports.Download)
		}
	}

	return router
}
