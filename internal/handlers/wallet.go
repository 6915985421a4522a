package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/store"
)

// WalletHandler covers the deposit/withdraw request side. Balances never
// change here; an admin settles the pending entries.
type WalletHandler struct {
	store *store.Store
}

func NewWalletHandler(st *store.Store) *WalletHandler {
	return &WalletHandler{store: st}
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("user_id")
	reference := req.TransactionID + ":" + req.SenderNumber
	if err := h.store.RequestDeposit(c.Request.Context(), userID, req.Amount, req.Method, reference); err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  req.Amount,
		"method":  req.Method,
	}).Info("Deposit requested")

	c.JSON(http.StatusCreated, gin.H{"message": "Deposit request submitted for review"})
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req models.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("user_id")
	if err := h.store.RequestWithdraw(c.Request.Context(), userID, req.Amount, req.Method, req.WithdrawNumber); err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  req.Amount,
		"method":  req.Method,
	}).Info("Withdrawal requested")

	c.JSON(http.StatusCreated, gin.H{"message": "Withdrawal request submitted for review"})
}
