package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/models"
)

// respondError maps domain errors onto HTTP statuses. Anything unmapped is a
// server fault: logged in full, returned opaque.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
	case errors.Is(err, models.ErrMinimumNotMet):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is below the minimum"})
	case errors.Is(err, models.ErrDailyLimitExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Daily withdrawal limit exceeded"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, models.ErrAccountLocked):
		c.JSON(http.StatusLocked, gin.H{"error": "Account temporarily locked. Try again later"})
	case errors.Is(err, models.ErrBettingClosed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Betting is closed for this round"})
	case errors.Is(err, models.ErrBetAlreadyPlaced):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bet already placed this round"})
	case errors.Is(err, models.ErrRoundNotRunning):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Round is not running"})
	case errors.Is(err, models.ErrAlreadySettled):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bet already settled"})
	case errors.Is(err, models.ErrTournamentFull):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tournament is full"})
	case errors.Is(err, models.ErrAlreadyRegistered):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already registered"})
	case errors.Is(err, models.ErrRegistrationClosed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Registration is closed"})
	case errors.Is(err, models.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
