package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tsf-arena-backend/internal/games"
	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/services"
	"tsf-arena-backend/internal/store"
)

type GameHandler struct {
	store    *store.Store
	crash    *games.CrashEngine
	wingo    *games.WingoEngine
	chicken  *games.ChickenEngine
	mines    *games.MinesGame
	coinflip *games.CoinFlip
	redis    *services.RedisService
}

func NewGameHandler(st *store.Store, crash *games.CrashEngine, wingo *games.WingoEngine,
	chicken *games.ChickenEngine, mines *games.MinesGame, coinflip *games.CoinFlip,
	redis *services.RedisService) *GameHandler {
	return &GameHandler{
		store:    st,
		crash:    crash,
		wingo:    wingo,
		chicken:  chicken,
		mines:    mines,
		coinflip: coinflip,
		redis:    redis,
	}
}

// username resolves the display name shown (masked) in the public bet book.
func (h *GameHandler) username(c *gin.Context) (int64, string, error) {
	userID := c.GetInt64("user_id")
	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		return 0, "", err
	}
	return userID, user.Username, nil
}

// PlaceBet is the plain stake debit some game screens use before a
// round-specific flow takes over.
func (h *GameHandler) PlaceBet(c *gin.Context) {
	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.store.PlaceBet(c.Request.Context(), c.GetInt64("user_id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"new_balance": balance})
}

func (h *GameHandler) CrashBet(c *gin.Context) {
	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, username, err := h.username(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.crash.PlaceBet(c.Request.Context(), userID, username, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GameHandler) CrashCashout(c *gin.Context) {
	res, err := h.crash.Cashout(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GameHandler) CrashState(c *gin.Context) {
	c.JSON(http.StatusOK, h.crash.State())
}

func (h *GameHandler) WingoBet(c *gin.Context) {
	var req models.WingoBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, username, err := h.username(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.wingo.PlaceBet(c.Request.Context(), userID, username, req.Amount, req.Selection)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GameHandler) WingoState(c *gin.Context) {
	c.JSON(http.StatusOK, h.wingo.State())
}

func (h *GameHandler) ChickenBet(c *gin.Context) {
	var req models.ChickenBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, username, err := h.username(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.chicken.PlaceBet(c.Request.Context(), userID, username, req.Amount, req.ChickenID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GameHandler) ChickenState(c *gin.Context) {
	c.JSON(http.StatusOK, h.chicken.State())
}

func (h *GameHandler) MinesStart(c *gin.Context) {
	var req models.MinesStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mineCount := req.MineCount
	if mineCount == 0 {
		mineCount = 3
	}

	session, err := h.mines.Start(c.Request.Context(), c.GetInt64("user_id"), req.Amount, mineCount)
	if err != nil {
		respondError(c, err)
		return
	}

	// The board itself never leaves the server mid-game.
	c.JSON(http.StatusOK, gin.H{
		"game_id":    session.ID,
		"mine_count": session.MineCount,
		"multiplier": session.Multiplier,
		"status":     session.Status,
	})
}

func (h *GameHandler) MinesReveal(c *gin.Context) {
	var req models.MinesRevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.mines.Reveal(c.Request.Context(), c.GetInt64("user_id"), req.GameID, *req.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GameHandler) MinesCashout(c *gin.Context) {
	var req models.MinesCashoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.mines.Cashout(c.Request.Context(), c.GetInt64("user_id"), req.GameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GameHandler) MinesActive(c *gin.Context) {
	sessions, err := h.redis.UserActiveMinesSessions(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, gin.H{
			"game_id":    s.ID,
			"bet_amount": s.BetAmount,
			"mine_count": s.MineCount,
			"revealed":   s.Revealed,
			"multiplier": s.Multiplier,
			"status":     s.Status,
			"created_at": s.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *GameHandler) CoinFlip(c *gin.Context) {
	var req models.CoinFlipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.coinflip.Play(c.Request.Context(), c.GetInt64("user_id"), req.Amount, req.Side)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
