package audit

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"stylehub-admin-svc/src/internal/cache"
	"stylehub-admin-svc/src/internal/config"
	"stylehub-admin-svc/src/internal/models"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	ListEvents(c *gin.Context)
	GetSignInStats(c *gin.Context)
}

type handler struct {
	config       *config.Configuration
	service      Service
	cacheService cache.Service
}

func NewHandler(cfg *config.Configuration, service Service, cacheService cache.Service) Handler {
	return &handler{
		config:       cfg,
		service:      service,
		cacheService: cacheService,
	}
}

func (h *handler) ListEvents(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	req := &ListEventsRequest{
		Page:      parseIntParam(c, "page", 1),
		Limit:     parseIntParam(c, "limit", 20),
		Action:    c.Query("action"),
		Principal: c.Query("principal"),
		Search:    c.Query("search"),
	}

	logrus.WithFields(logrus.Fields{
		"page":      req.Page,
		"limit":     req.Limit,
		"action":    req.Action,
		"principal": req.Principal,
		"search":    req.Search,
	}).Info("ListEvents request received")

	response, err := h.service.ListEvents(ctx, req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidParams) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid filter",
				"message": "The requested action filter is not a known session action",
			})
			return
		}
		logrus.WithError(err).Error("Failed to list audit events")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve sign-in history",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
		"message": "Sign-in history retrieved successfully",
	})
}

func (h *handler) GetSignInStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
	defer cancel()

	logrus.Info("GetSignInStats request received")

	stats, err := h.cacheService.GetSignInStats(ctx)
	if err == nil && stats != nil {
		logrus.Debug("Sign-in statistics retrieved from cache")
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    stats,
			"message": "Sign-in statistics retrieved successfully (from cache)",
		})
		return
	}

	stats, err = h.service.GetSignInStats(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get sign-in statistics")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve sign-in statistics",
			"message": err.Error(),
		})
		return
	}

	h.cacheService.SaveSignInStats(ctx, stats)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
		"message": "Sign-in statistics retrieved successfully",
	})
}

func parseIntParam(c *gin.Context, param string, defaultValue int) int {
	value := c.Query(param)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"param": param,
			"value": value,
			"error": err,
		}).Warn("Invalid integer parameter, using default")

		return defaultValue
	}
	return parsed
}
