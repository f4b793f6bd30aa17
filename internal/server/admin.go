package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunScheduler runs every enabled job once. Only registered outside production.
func (s *Server) RunScheduler(c *gin.Context) {
	if s.scheduler == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	started := s.clock.Now()
	if err := s.scheduler.RunOnce(c.Request.Context()); err != nil {
		s.log.Warn("manual scheduler run failed", zap.Error(err))
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"duration_ms": s.clock.Now().Sub(started).Milliseconds(),
	})
}
