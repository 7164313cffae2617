// Package api exposes the routing pass over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crm-chatbot-api/server/internal/agent/graph"
	"github.com/crm-chatbot-api/server/internal/agent/model"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
)

// NewRouter wires the HTTP routes onto a fresh gin engine.
func NewRouter(runner graph.Runner, sessions model.SessionRepository) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := &Handlers{runner: runner, sessions: sessions}
	r.GET("/health", h.Health)
	r.POST("/ask", h.Ask)
	r.GET("/sessions/:id", h.GetSession)
	r.DELETE("/sessions/:id", h.DeleteSession)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := logx.Debug()
		if status >= 500 {
			evt = logx.Error()
		} else if status >= 400 {
			evt = logx.Warn()
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
