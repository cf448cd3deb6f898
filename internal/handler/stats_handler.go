package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khushik17/wee-Chat/internal/hub"
)

// StatsHandler exposes hub health numbers for operations.
type StatsHandler interface {
	GetStats(c *gin.Context)
}

type statsHandler struct {
	hub *hub.Hub
}

func NewStatsHandler(h *hub.Hub) StatsHandler {
	return &statsHandler{hub: h}
}

func (h *statsHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connectedClients": h.hub.ClientCount(),
		"onlineUsers":      h.hub.OnlineCount(),
		"queueDepth":       h.hub.QueueDepth(),
	})
}
