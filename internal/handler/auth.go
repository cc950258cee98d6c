package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/greenbasket/storefront/internal/dto"
	"github.com/greenbasket/storefront/internal/middleware"
	"github.com/greenbasket/storefront/internal/service"
)

const (
	guestCookieName   = "guest_session"
	guestCookieMaxAge = int(30 * 24 * time.Hour / time.Second)
)

// guestSessionID returns the visitor's guest-session cookie, minting
// one when absent.
func guestSessionID(c *gin.Context) string {
	if v, err := c.Cookie(guestCookieName); err == nil && v != "" {
		return v
	}
	id := uuid.NewString()
	c.SetCookie(guestCookieName, id, guestCookieMaxAge, "/", "", false, true)
	return id
}

type AuthHandler struct {
	sessions *service.SessionService
	guest    *service.GuestGate
}

func NewAuthHandler(sessions *service.SessionService, guest *service.GuestGate) *AuthHandler {
	return &AuthHandler{sessions: sessions, guest: guest}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessions.SignUp(c.Request.Context(), req.Name, req.Email, req.Mobile, req.Password); err != nil {
		if errors.Is(err, service.ErrDuplicateRegistration) {
			c.JSON(http.StatusConflict, gin.H{"error": "account already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered, please sign in"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.sessions.SignIn(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrIdentityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "identity not found"})
			return
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := dto.AuthResponse{
		Token: identity.AccessToken,
		User:  dto.UserResponse{ID: identity.ID, Email: identity.Email},
	}
	if profile := h.sessions.CurrentProfile(c.Request.Context(), identity.ID); profile != nil {
		resp.User.Name = profile.Name
		resp.User.IsAdmin = profile.IsAdmin
	}

	// Replay the action this visitor captured while still a guest.
	// A failed replay never fails the login; the action is gone either
	// way (consumed exactly once).
	if sid, err := c.Cookie(guestCookieName); err == nil && sid != "" {
		if action, _ := h.guest.Replay(c.Request.Context(), sid, identity.ID); action != nil {
			resp.Replayed = &dto.GuestActionResponse{Kind: string(action.Kind), Item: action.Item}
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}
