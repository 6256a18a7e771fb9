package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tle_judge/internal/api/middleware"
	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

type AdminService interface {
	GetStats(ctx context.Context) (model.PlatformStats, error)
}

type AdminHandler struct {
	adminService AdminService
}

func NewAdminHandler(as AdminService) *AdminHandler {
	return &AdminHandler{adminService: as}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)
	r.Get("/stats", h.getStats) // GET /api/v1/admin/stats
}

func (h *AdminHandler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.GetStats(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}
