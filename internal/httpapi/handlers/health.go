package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AdamsEmmanuel/Chatbot/internal/common"
)

// Health reports liveness plus persistence-layer reachability. A broken
// database is the only condition surfaced as 503.
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.Log.Error("health check failed", zap.Error(err))
		common.Fail(c, http.StatusServiceUnavailable, 50300, "service unavailable")
		return
	}

	redisStatus := "connected"
	if err := h.Redis.Ping(ctx); err != nil {
		redisStatus = "unreachable"
	}

	common.OK(c, gin.H{
		"status":      "healthy",
		"environment": h.Cfg.Env,
		"database":    "connected",
		"redis":       redisStatus,
	})
}

func (h *Handler) Root(c *gin.Context) {
	common.OK(c, gin.H{
		"message":     "Chatbot API is running!",
		"version":     "1.0.0",
		"environment": h.Cfg.Env,
	})
}
