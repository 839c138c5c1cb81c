package session

import (
	"context"
	"net/http"
	"stylehub-admin-svc/src/internal/config"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	SignIn(c *gin.Context)
	SignOut(c *gin.Context)
	Refresh(c *gin.Context)
	Status(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	manager *Manager
}

func NewHandler(cfg *config.Configuration, manager *Manager) Handler {
	return &handler{
		config:  cfg,
		manager: manager,
	}
}

type signInRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

func (h *handler) SignIn(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Malformed sign-in request")
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Email and password are required",
		})
		return
	}

	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Email and password are required",
		})
		return
	}

	result := h.manager.SignIn(ctx, req.Email, req.Password, req.RememberMe)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"expiresAt": h.manager.SessionExpiry(),
		"principal": h.manager.Principal(),
	})
}

// SignOut always resolves to the anonymous state, whatever the backend does.
func (h *handler) SignOut(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	h.manager.SignOut(ctx)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

func (h *handler) Refresh(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if !h.manager.EnsureValid(ctx) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Session expired - please login again",
		})
		return
	}

	ok := h.manager.RefreshSession(ctx)
	c.JSON(http.StatusOK, gin.H{
		"success":   ok,
		"expiresAt": h.manager.SessionExpiry(),
	})
}

func (h *handler) Status(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	authenticated := h.manager.EnsureValid(ctx)

	c.JSON(http.StatusOK, gin.H{
		"authenticated": authenticated,
		"state":         h.manager.CurrentState(),
		"expiresAt":     h.manager.SessionExpiry(),
		"warning":       h.manager.Warning(),
	})
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}
