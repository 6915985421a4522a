package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/store"
)

type UserHandler struct {
	store *store.Store
}

func NewUserHandler(st *store.Store) *UserHandler {
	return &UserHandler{store: st}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.store.GetUserByID(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("user_id")
	if err := h.store.UpdateProfile(c.Request.Context(), userID, req.Email, req.Username); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) Transactions(c *gin.Context) {
	entries, err := h.store.UserTransactions(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

func (h *UserHandler) GameHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.store.UserGameHistory(c.Request.Context(), c.GetInt64("user_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"games": records})
}
