package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khushik17/wee-Chat/internal/service"
)

type ChatHandler interface {
	GetMessages(c *gin.Context)
	GetRecentChats(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) ChatHandler {
	return &chatHandler{service: service}
}

// GetMessages returns the full history between the requester and the user
// named in the "with" query parameter. No conversation yet means an empty
// list, not an error.
func (h *chatHandler) GetMessages(c *gin.Context) {
	counterpart := c.Query("with")
	if counterpart == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receiver ID required"})
		return
	}

	messages, err := h.service.GetHistory(c.Request.Context(), Identity(c), counterpart)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *chatHandler) GetRecentChats(c *gin.Context) {
	recent, err := h.service.GetRecentConversations(c.Request.Context(), Identity(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recent chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recent": recent})
}
