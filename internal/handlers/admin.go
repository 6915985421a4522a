package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/store"
)

type AdminHandler struct {
	store *store.Store
}

func NewAdminHandler(st *store.Store) *AdminHandler {
	return &AdminHandler{store: st}
}

func (h *AdminHandler) PendingTransactions(c *gin.Context) {
	entries, err := h.store.PendingTransactions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

// ResolveTransaction approves or rejects one pending deposit/withdraw. The
// store guarantees the entry settles at most once.
func (h *AdminHandler) ResolveTransaction(c *gin.Context) {
	var req models.ResolvePendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	approve := req.Action == "approve"
	if err := h.store.ResolvePending(c.Request.Context(), req.ID, approve); err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"admin_id": c.GetInt64("user_id"),
		"entry_id": req.ID,
		"action":   req.Action,
	}).Info("Pending transaction resolved")

	c.JSON(http.StatusOK, gin.H{"message": "Transaction " + req.Action + "d"})
}

func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateBalance applies a manual correction, recorded in the ledger like any
// other balance change.
func (h *AdminHandler) UpdateBalance(c *gin.Context) {
	var req models.UpdateBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.store.AdjustBalance(c.Request.Context(), req.UserID, req.Amount, req.Type == "set")
	if err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"admin_id": c.GetInt64("user_id"),
		"user_id":  req.UserID,
		"amount":   req.Amount,
		"type":     req.Type,
	}).Info("Balance adjusted")

	c.JSON(http.StatusOK, gin.H{"new_balance": balance})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) CreateTournament(c *gin.Context) {
	var req models.CreateTournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.store.CreateTournament(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tournament": t})
}

func (h *AdminHandler) UpdateTournament(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tournament id"})
		return
	}

	var req models.UpdateTournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.UpdateTournament(c.Request.Context(), id, req.Status, req.RoomID, req.RoomPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tournament updated"})
}

// PublishResults settles a finished tournament: ranks, kills and prize
// credits land in one transaction.
func (h *AdminHandler) PublishResults(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tournament id"})
		return
	}

	var req models.PublishResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.PublishResults(c.Request.Context(), id, req.Results); err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"admin_id":      c.GetInt64("user_id"),
		"tournament_id": id,
		"results":       len(req.Results),
	}).Info("Tournament results published")

	c.JSON(http.StatusOK, gin.H{"message": "Results published"})
}
