package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tle_judge/internal/api/middleware"
	"tle_judge/internal/app/service"
	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

type ContestService interface {
	CreateContest(ctx context.Context, req service.ContestRequest) (*model.Contest, error)
	UpdateContest(ctx context.Context, id string, req service.ContestRequest) (*model.Contest, error)
	DeleteContest(ctx context.Context, id string) error
	GetContest(ctx context.Context, id string) (*model.Contest, error)
	ListContests(ctx context.Context, status model.ContestStatus) ([]model.Contest, error)
	RegisterForContest(ctx context.Context, contestID, userID string) error
	ComputeLeaderboard(ctx context.Context, contestID string) ([]model.LeaderboardEntry, error)
}

type ContestHandler struct {
	contestService ContestService
}

func NewContestHandler(cs ContestService) *ContestHandler {
	return &ContestHandler{contestService: cs}
}

func (h *ContestHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listContests) // ?status=upcoming|ongoing|past
	r.Get("/{contestID}", h.getContest)
	r.Get("/{contestID}/leaderboard", h.leaderboard)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Post("/{contestID}/register", h.register)
	})

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createContest)
		adminRouter.Put("/{contestID}", h.updateContest)
		adminRouter.Delete("/{contestID}", h.deleteContest)
	})
}

func (h *ContestHandler) listContests(w http.ResponseWriter, r *http.Request) {
	contests, err := h.contestService.ListContests(r.Context(), model.ContestStatus(r.URL.Query().Get("status")))
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) getContest(w http.ResponseWriter, r *http.Request) {
	contest, err := h.contestService.GetContest(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contest)
}

func (h *ContestHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.contestService.ComputeLeaderboard(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *ContestHandler) register(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	contestID := chi.URLParam(r, "contestID")
	if err := h.contestService.RegisterForContest(r.Context(), contestID, userID); err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Registered successfully", "contest_id": contestID})
}

func (h *ContestHandler) createContest(w http.ResponseWriter, r *http.Request) {
	var req service.ContestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	contest, err := h.contestService.CreateContest(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, contest)
}

func (h *ContestHandler) updateContest(w http.ResponseWriter, r *http.Request) {
	var req service.ContestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	contest, err := h.contestService.UpdateContest(r.Context(), chi.URLParam(r, "contestID"), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contest)
}

func (h *ContestHandler) deleteContest(w http.ResponseWriter, r *http.Request) {
	if err := h.contestService.DeleteContest(r.Context(), chi.URLParam(r, "contestID")); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
