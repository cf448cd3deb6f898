package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/khushik17/wee-Chat/internal/jobs"
	"github.com/khushik17/wee-Chat/internal/repo"
	"github.com/khushik17/wee-Chat/internal/service"
)

type MemeHandler interface {
	GetFeed(c *gin.Context)
	Like(c *gin.Context)
	Unlike(c *gin.Context)
	Comment(c *gin.Context)
	Refresh(c *gin.Context)
	Share(c *gin.Context)
	GetShared(c *gin.Context)
}

type memeHandler struct {
	service service.MemeService
	queue   *jobs.Queue
}

func NewMemeHandler(service service.MemeService, queue *jobs.Queue) MemeHandler {
	return &memeHandler{service: service, queue: queue}
}

func (h *memeHandler) GetFeed(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	lastID := c.Query("lastId")

	memes, err := h.service.Feed(c.Request.Context(), Identity(c), lastID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"memes": memes})
}

type memeIDRequest struct {
	ID string `json:"id" binding:"required"`
}

func (h *memeHandler) Like(c *gin.Context) {
	var req memeIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meme id is required"})
		return
	}

	meme, err := h.service.Like(c.Request.Context(), req.ID, Identity(c))
	if err != nil {
		respondMemeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": meme.LikeCount, "liked": meme.Liked})
}

func (h *memeHandler) Unlike(c *gin.Context) {
	var req memeIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meme id is required"})
		return
	}

	meme, err := h.service.Unlike(c.Request.Context(), req.ID, Identity(c))
	if err != nil {
		respondMemeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": meme.LikeCount, "liked": meme.Liked})
}

type commentRequest struct {
	ID   string `json:"id" binding:"required"`
	Text string `json:"text" binding:"required"`
}

func (h *memeHandler) Comment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meme id and text are required"})
		return
	}

	meme, err := h.service.Comment(c.Request.Context(), req.ID, Identity(c), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrInvalidComment) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondMemeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": meme.Comments})
}

// Refresh queues an ingest run instead of fetching inline, so the endpoint
// stays fast and repeated calls collapse into one task.
func (h *memeHandler) Refresh(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh queue is not configured"})
		return
	}
	if err := h.queue.EnqueueMemeRefresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue refresh"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Memes refresh queued"})
}

type shareRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	MemeID     string `json:"memeId" binding:"required"`
}

func (h *memeHandler) Share(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId and memeId are required"})
		return
	}

	share, err := h.service.Share(c.Request.Context(), Identity(c), req.ReceiverID, req.MemeID)
	if err != nil {
		respondMemeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"share": share})
}

func (h *memeHandler) GetShared(c *gin.Context) {
	shared, err := h.service.SharedWith(c.Request.Context(), Identity(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shared memes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shared": shared})
}

func respondMemeError(c *gin.Context, err error) {
	if errors.Is(err, repo.ErrMemeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meme not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}
