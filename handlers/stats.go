package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aswaq/aswaq-backend/internal/apierrors"
	"github.com/aswaq/aswaq-backend/internal/config"
	"github.com/aswaq/aswaq-backend/internal/users"
	"github.com/aswaq/aswaq-backend/pkg/logger"
	"github.com/aswaq/aswaq-backend/pkg/middleware"
)

// StatsHandler serves the small analytics surface for the dashboard. These
// routes only need the caller's identity, so they sit behind the claims-only
// gate.
type StatsHandler struct {
	cfg   *config.Config
	stats *users.StatsService
}

func NewStatsHandler(cfg *config.Config, s *users.StatsService) *StatsHandler {
	return &StatsHandler{cfg: cfg, stats: s}
}

func (h *StatsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/stats", middleware.AuthenticateUser(h.cfg.JWT.Secret))
	g.GET("/users", h.Users)
	g.GET("/activity", h.Activity)
	g.GET("/security", h.Security)
}

func (h *StatsHandler) Users(c *gin.Context) {
	o, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		logger.Errorf("user stats: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *StatsHandler) Activity(c *gin.Context) {
	a, err := h.stats.Activity(c.Request.Context())
	if err != nil {
		logger.Errorf("activity stats: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *StatsHandler) Security(c *gin.Context) {
	s, err := h.stats.Security(c.Request.Context())
	if err != nil {
		logger.Errorf("security stats: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, s)
}
