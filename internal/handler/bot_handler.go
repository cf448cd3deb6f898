package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khushik17/wee-Chat/internal/service"
)

type BotHandler interface {
	Chat(c *gin.Context)
}

type botHandler struct {
	service service.BotService
}

func NewBotHandler(service service.BotService) BotHandler {
	return &botHandler{service: service}
}

type botChatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *botHandler) Chat(c *gin.Context) {
	var req botChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, err := h.service.Chat(c.Request.Context(), Identity(c), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBotMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
