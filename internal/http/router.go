// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pickup/internal/http/handlers"
	"pickup/internal/http/middleware"
	"pickup/internal/logger"
)

func NewRouter(matchingHandler *handlers.MatchingHandler, log logger.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging(log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	r.POST("/api/matching/cycle", matchingHandler.RunCycle)
	r.GET("/api/matching/export", matchingHandler.Export)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
