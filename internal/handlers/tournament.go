package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/store"
)

type TournamentHandler struct {
	store *store.Store
}

func NewTournamentHandler(st *store.Store) *TournamentHandler {
	return &TournamentHandler{store: st}
}

func (h *TournamentHandler) List(c *gin.Context) {
	tournaments, err := h.store.ListTournaments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": tournaments})
}

// Details returns one tournament with its participant list. Room credentials
// are included only for registered participants once the room is ready.
func (h *TournamentHandler) Details(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tournament id"})
		return
	}

	t, err := h.store.GetTournament(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	participants, err := h.store.TournamentParticipants(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"tournament": t, "participants": participants}

	userID := c.GetInt64("user_id")
	registered := false
	for _, p := range participants {
		if p.UserID == userID {
			registered = true
			break
		}
	}
	resp["registered"] = registered

	roomReady := t.Status == models.TournamentStatusRoomReady || t.Status == models.TournamentStatusLive
	if registered && roomReady && t.RoomID != "" {
		resp["room"] = models.RoomDetails{RoomID: t.RoomID, RoomPassword: t.RoomPassword}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *TournamentHandler) Register(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tournament id"})
		return
	}

	var req models.TournamentRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("user_id")
	if err := h.store.RegisterParticipant(c.Request.Context(), userID, id, req.InGameName, req.InGameID); err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"user_id":       userID,
		"tournament_id": id,
	}).Info("Tournament registration")

	c.JSON(http.StatusCreated, gin.H{"message": "Registered"})
}
