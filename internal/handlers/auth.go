package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"tsf-arena-backend/internal/config"
	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/services"
	"tsf-arena-backend/internal/store"
)

const tokenTTL = 7 * 24 * time.Hour

type AuthHandler struct {
	store      *store.Store
	jwtService *services.JWTService
	cfg        *config.Config
}

func NewAuthHandler(st *store.Store, jwtService *services.JWTService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{store: st, jwtService: jwtService, cfg: cfg}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), req.Email, req.Username,
		req.FullName, req.Phone, string(hash), h.cfg.StartingBalance)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Role, tokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID, "username": user.Username}).Info("User signed up")

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.GetUserByIdentifier(c.Request.Context(), req.Identifier)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}

	if user.IsLocked(time.Now()) {
		respondError(c, models.ErrAccountLocked)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		locked, err := h.store.RecordFailedLogin(c.Request.Context(), user.ID)
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Failed to record login failure")
		}
		if locked {
			respondError(c, models.ErrAccountLocked)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.LoginAttempts > 0 || user.LockUntil != nil {
		if err := h.store.ResetLoginAttempts(c.Request.Context(), user.ID); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Failed to reset login attempts")
		}
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Role, tokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// AdminLogin authenticates against the configured admin account, creating it
// on first use.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Email != h.cfg.AdminEmail || req.Password != h.cfg.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	admin, err := h.store.EnsureAdmin(c.Request.Context(), req.Email, string(hash))
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(admin.ID, models.RoleAdmin, tokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": admin})
}
