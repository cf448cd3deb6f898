package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khushik17/wee-Chat/internal/model"
	"github.com/khushik17/wee-Chat/internal/repo"
	"github.com/khushik17/wee-Chat/internal/service"
)

type UserHandler interface {
	CreateUser(c *gin.Context)
	GetProfile(c *gin.Context)
	UpdateProfile(c *gin.Context)
	SearchUsers(c *gin.Context)
}

type userHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) UserHandler {
	return &userHandler{service: service}
}

type createUserRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
}

// CreateUser mirrors the identity provider's user into the local store. It is
// idempotent per userId, so first-login races are harmless.
func (h *userHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and username are required"})
		return
	}

	user, err := h.service.FindOrCreate(c.Request.Context(), model.User{
		ExternalID: req.UserID,
		Username:   req.Username,
		Email:      req.Email,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *userHandler) GetProfile(c *gin.Context) {
	user, err := h.service.Profile(c.Request.Context(), Identity(c))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"userId":         user.ExternalID,
			"username":       user.Username,
			"email":          user.Email,
			"bio":            user.Bio,
			"profilePicture": user.ProfilePicture,
		},
	})
}

type updateProfileRequest struct {
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
}

func (h *userHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	if req.Username == "" && req.Bio == "" && req.ProfilePicture == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), Identity(c), req.Username, req.Bio, req.ProfilePicture)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

func (h *userHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username required"})
		return
	}

	users, err := h.service.Search(c.Request.Context(), query, Identity(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	results := make([]gin.H, 0, len(users))
	for _, u := range users {
		results = append(results, gin.H{
			"userId":         u.ExternalID,
			"username":       u.Username,
			"profilePicture": u.ProfilePicture,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": results})
}
